package registration

import (
	"context"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

const maxSuggestions = 5

// LookupNumber finds the pilot already racing number in category, so the
// form can be pre-filled as a re-registration.
func (s *Service) LookupNumber(ctx context.Context, category, number string) (Prefill, bool) {
	number = strings.TrimSpace(number)
	if number == "" {
		return Prefill{}, false
	}
	roster := s.repo.GetPilots(ctx)
	idx, ok := findByNumber(roster, number, category, "")
	if !ok {
		return Prefill{}, false
	}
	return prefillFrom(roster[idx], category), true
}

// Suggest returns up to five known pilots whose name contains query, searched
// across all categories. Queries of two characters or fewer return nothing.
func (s *Service) Suggest(ctx context.Context, query, category string) []Prefill {
	q := util.Upper(query)
	out := []Prefill{}
	if len([]rune(q)) <= 2 {
		return out
	}
	seen := map[string]bool{}
	for _, p := range s.repo.GetPilots(ctx) {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		if !strings.Contains(p.Name, q) {
			continue
		}
		out = append(out, prefillFrom(p, category))
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// prefillFrom copies identity data. The kart number and ranking only carry
// over when p already races in the selected category.
func prefillFrom(p models.Pilot, category string) Prefill {
	pf := Prefill{
		PilotID:        p.ID,
		Name:           p.Name,
		Category:       category,
		Ranking:        DefaultRanking,
		MedicalLicense: p.MedicalLicense,
		SportsLicense:  p.SportsLicense,
		TransponderID:  p.TransponderID,
	}
	if p.Category == category {
		pf.SameCategory = true
		pf.Number = p.Number
		if p.Ranking != 0 {
			pf.Ranking = p.Ranking
		}
	}
	return pf
}
