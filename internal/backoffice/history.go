package backoffice

import (
	"context"
	"strconv"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

const defaultHistoryImage = "https://images.unsplash.com/photo-1547631618-f29792042761?w=800"

type HistoryForm struct {
	ID        string            `json:"id,omitempty"`
	Name      string            `json:"name"`
	Year      int               `json:"year"`
	Tracks    string            `json:"tracks,omitempty"`
	Image     string            `json:"image,omitempty"`
	Champions []models.Champion `json:"champions,omitempty"`
}

// SaveHistory adds or edits a finished season for the hall of fame.
func (s *Service) SaveHistory(ctx context.Context, actor *models.AdminUser, f HistoryForm) (models.Championship, error) {
	errs := models.FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "Nombre y Año son requeridos.")
	}
	if f.Year <= 0 {
		errs.Add("year", "Nombre y Año son requeridos.")
	}
	champions := []models.Champion{}
	for _, c := range f.Champions {
		if strings.TrimSpace(c.Category) == "" || strings.TrimSpace(c.Pilot) == "" {
			continue
		}
		champions = append(champions, models.Champion{
			Category: strings.TrimSpace(c.Category),
			Pilot:    util.Upper(c.Pilot),
			Kart:     strings.TrimSpace(c.Kart),
		})
	}
	if err := errs.Err(); err != nil {
		return models.Championship{}, err
	}

	legacy := models.Championship{
		ID:        f.ID,
		Name:      strings.TrimSpace(f.Name),
		Year:      f.Year,
		Status:    string(models.EventFinished),
		Dates:     "Temporada " + strconv.Itoa(f.Year),
		Tracks:    strings.TrimSpace(f.Tracks),
		Image:     strings.TrimSpace(f.Image),
		Champions: champions,
	}
	if legacy.Tracks == "" {
		legacy.Tracks = "Varios"
	}
	if legacy.Image == "" {
		legacy.Image = defaultHistoryImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	champs := s.repo.GetChampionships(ctx)
	editing := f.ID != ""
	if editing {
		idx := findIndex(champs, func(c models.Championship) bool { return c.ID == f.ID })
		if idx < 0 {
			return models.Championship{}, models.NotFoundError{Resource: "championship"}
		}
		legacy.Events = champs[idx].Events
		champs[idx] = legacy
	} else {
		legacy.ID = util.NewID()
		champs = append([]models.Championship{legacy}, champs...)
	}
	if err := s.repo.SaveChampionships(ctx, champs); err != nil {
		return models.Championship{}, err
	}
	return legacy, s.repo.AddLog(ctx, actor, "HISTORIA", verb(editing, "Editado", "Añadido")+" Legado: "+legacy.Name)
}

// AddChampion appends one category winner to a season.
func (s *Service) AddChampion(ctx context.Context, actor *models.AdminUser, champID string, c models.Champion) (models.Championship, error) {
	if strings.TrimSpace(c.Category) == "" || strings.TrimSpace(c.Pilot) == "" {
		return models.Championship{}, models.FieldErrors{"pilot": "Categoría y piloto son requeridos"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	champs := s.repo.GetChampionships(ctx)
	idx := findIndex(champs, func(ch models.Championship) bool { return ch.ID == champID })
	if idx < 0 {
		return models.Championship{}, models.NotFoundError{Resource: "championship"}
	}
	champs[idx].Champions = append(champs[idx].Champions, models.Champion{
		Category: strings.TrimSpace(c.Category),
		Pilot:    util.Upper(c.Pilot),
		Kart:     strings.TrimSpace(c.Kart),
	})
	if err := s.repo.SaveChampionships(ctx, champs); err != nil {
		return models.Championship{}, err
	}
	return champs[idx], s.repo.AddLog(ctx, actor, "HISTORIA", "Campeón añadido: "+util.Upper(c.Pilot)+" ("+champs[idx].Name+")")
}
