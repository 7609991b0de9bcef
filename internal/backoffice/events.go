package backoffice

import (
	"context"
	"fmt"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

type EventForm struct {
	ID     string `json:"id,omitempty"`
	Round  int    `json:"round,omitempty"`
	Name   string `json:"name"`
	Date   string `json:"date,omitempty"`
	Track  string `json:"track"`
	Status string `json:"status,omitempty"`
}

func (s *Service) champIndex(champs []models.Championship, id string) (int, error) {
	idx := findIndex(champs, func(c models.Championship) bool { return c.ID == id })
	if idx < 0 {
		return -1, models.NotFoundError{Resource: "championship"}
	}
	return idx, nil
}

// SaveEvent adds an event to a championship calendar or replaces one in place.
// Round defaults to the next position and date to today.
func (s *Service) SaveEvent(ctx context.Context, actor *models.AdminUser, champID string, f EventForm) (models.Event, error) {
	errs := models.FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "Nombre y Circuito son obligatorios")
	}
	if strings.TrimSpace(f.Track) == "" {
		errs.Add("track", "Nombre y Circuito son obligatorios")
	}
	status := models.EventScheduled
	if f.Status != "" {
		st, err := models.ParseEventStatus(f.Status)
		if err != nil {
			errs.Add("status", "Estado inválido")
		}
		status = st
	}
	if err := errs.Err(); err != nil {
		return models.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	champs := s.repo.GetChampionships(ctx)
	ci, err := s.champIndex(champs, champID)
	if err != nil {
		return models.Event{}, err
	}
	events := champs[ci].Events

	ev := models.Event{
		ID:     f.ID,
		Round:  f.Round,
		Name:   strings.TrimSpace(f.Name),
		Date:   strings.TrimSpace(f.Date),
		Track:  strings.TrimSpace(f.Track),
		Status: status,
	}
	if ev.Round <= 0 {
		ev.Round = len(events) + 1
	}
	if ev.Date == "" {
		ev.Date = util.DisplayDate(s.now())
	}

	editing := f.ID != ""
	if editing {
		ei := findIndex(events, func(e models.Event) bool { return e.ID == f.ID })
		if ei < 0 {
			return models.Event{}, models.NotFoundError{Resource: "event"}
		}
		ev.BriefingSigned = events[ei].BriefingSigned
		ev.TechnicalScrutiny = events[ei].TechnicalScrutiny
		events[ei] = ev
	} else {
		ev.ID = util.NewID()
		events = append(events, ev)
	}
	champs[ci].Events = events

	if err := s.repo.SaveChampionships(ctx, champs); err != nil {
		return models.Event{}, err
	}
	return ev, s.repo.AddLog(ctx, actor, "EVENTO", verb(editing, "Editado", "Creado")+" evento: "+ev.Name)
}

func (s *Service) DeleteEvent(ctx context.Context, actor *models.AdminUser, champID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	champs := s.repo.GetChampionships(ctx)
	ci, err := s.champIndex(champs, champID)
	if err != nil {
		return err
	}
	ei := findIndex(champs[ci].Events, func(e models.Event) bool { return e.ID == eventID })
	if ei < 0 {
		return models.NotFoundError{Resource: "event"}
	}
	champs[ci].Events = without(champs[ci].Events, ei)
	if err := s.repo.SaveChampionships(ctx, champs); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "EVENTO", "Eliminado evento ID: "+eventID)
}

// attendance loads the event and checks the pilot is on the roster. Side
// tables are keyed by pilot id.
func (s *Service) attendance(ctx context.Context, actor *models.AdminUser, champID, eventID, pilotID string, fn func(ev *models.Event, p models.Pilot) string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster := s.repo.GetPilots(ctx)
	pi := findIndex(roster, func(p models.Pilot) bool { return p.ID == pilotID })
	if pi < 0 {
		return models.NotFoundError{Resource: "pilot"}
	}
	champs := s.repo.GetChampionships(ctx)
	ci, err := s.champIndex(champs, champID)
	if err != nil {
		return err
	}
	ei := findIndex(champs[ci].Events, func(e models.Event) bool { return e.ID == eventID })
	if ei < 0 {
		return models.NotFoundError{Resource: "event"}
	}
	detail := fn(&champs[ci].Events[ei], roster[pi])
	if err := s.repo.SaveChampionships(ctx, champs); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "ASISTENCIA", detail)
}

// SignBriefing marks the pilot as present at the drivers' briefing. Signing twice is a no-op.
func (s *Service) SignBriefing(ctx context.Context, actor *models.AdminUser, champID, eventID, pilotID string) error {
	return s.attendance(ctx, actor, champID, eventID, pilotID, func(ev *models.Event, p models.Pilot) string {
		for _, id := range ev.BriefingSigned {
			if id == pilotID {
				return fmt.Sprintf("Briefing ya firmado: %s (%s)", p.Name, ev.Name)
			}
		}
		ev.BriefingSigned = append(ev.BriefingSigned, pilotID)
		return fmt.Sprintf("Briefing firmado: %s (%s)", p.Name, ev.Name)
	})
}

// SetScrutiny records the technical scrutineering verdict for the pilot's kart.
func (s *Service) SetScrutiny(ctx context.Context, actor *models.AdminUser, champID, eventID, pilotID string, passed bool) error {
	return s.attendance(ctx, actor, champID, eventID, pilotID, func(ev *models.Event, p models.Pilot) string {
		if ev.TechnicalScrutiny == nil {
			ev.TechnicalScrutiny = map[string]bool{}
		}
		ev.TechnicalScrutiny[pilotID] = passed
		verdict := "rechazada"
		if passed {
			verdict = "aprobada"
		}
		return fmt.Sprintf("Verificación técnica %s: %s (%s)", verdict, p.Name, ev.Name)
	})
}
