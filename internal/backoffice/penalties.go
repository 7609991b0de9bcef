package backoffice

import (
	"context"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

type PenaltyForm struct {
	PilotID string `json:"pilotId"`
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Points  int    `json:"points,omitempty"`
	Date    string `json:"date,omitempty"`
}

// AddPenalty issues a sanction. The pilot is resolved now and its name, number
// and category are copied into the record: a penalty documents who was
// sanctioned at the time, so later roster edits leave it untouched.
func (s *Service) AddPenalty(ctx context.Context, actor *models.AdminUser, f PenaltyForm) (models.Penalty, error) {
	errs := models.FieldErrors{}
	typ, err := models.ParsePenaltyType(f.Type)
	if err != nil {
		errs.Add("type", "Tipo de sanción inválido")
	}
	if strings.TrimSpace(f.Reason) == "" {
		errs.Add("reason", "El motivo es obligatorio")
	}
	if f.Points < 0 || f.Points > 10 {
		errs.Add("points", "Los puntos deben estar entre 0 y 10")
	}
	if err := errs.Err(); err != nil {
		return models.Penalty{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	roster := s.repo.GetPilots(ctx)
	pi := findIndex(roster, func(p models.Pilot) bool { return p.ID == f.PilotID })
	if pi < 0 {
		return models.Penalty{}, models.FieldErrors{"pilotId": "Piloto inexistente"}
	}
	pilot := roster[pi]

	pen := models.Penalty{
		ID:        util.NewID(),
		PilotID:   pilot.ID,
		PilotName: pilot.Name,
		Number:    pilot.Number,
		Category:  pilot.Category,
		Type:      typ,
		Reason:    strings.TrimSpace(f.Reason),
		Points:    f.Points,
		Date:      strings.TrimSpace(f.Date),
	}
	if pen.Date == "" {
		pen.Date = util.DisplayDate(s.now())
	}
	penalties := append([]models.Penalty{pen}, s.repo.GetPenalties(ctx)...)
	if err := s.repo.SavePenalties(ctx, penalties); err != nil {
		return models.Penalty{}, err
	}
	return pen, s.repo.AddLog(ctx, actor, "SANCION", string(pen.Type)+": #"+pen.Number+" "+pen.PilotName)
}

func (s *Service) DeletePenalty(ctx context.Context, actor *models.AdminUser, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	penalties := s.repo.GetPenalties(ctx)
	idx := findIndex(penalties, func(p models.Penalty) bool { return p.ID == id })
	if idx < 0 {
		return models.NotFoundError{Resource: "penalty"}
	}
	if err := s.repo.SavePenalties(ctx, without(penalties, idx)); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "SANCION", "Eliminada ID: "+id)
}
