package registration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

// Repository is the slice of the storage façade the roster flows need.
type Repository interface {
	GetPilots(ctx context.Context) []models.Pilot
	SavePilots(ctx context.Context, pilots []models.Pilot) error
	GetSettings(ctx context.Context) models.SystemSettings
	GetCategories(ctx context.Context) []string
	AddLog(ctx context.Context, actor *models.AdminUser, action, detail string) error
}

// Service runs every roster mutation. Mutations are serialized so the
// read-validate-save sequence of one request never interleaves with another.
type Service struct {
	repo    Repository
	logger  *zap.Logger
	now     func() time.Time
	observe func(Outcome)

	mu sync.Mutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver reports the outcome of every public registration attempt.
func WithObserver(fn func(Outcome)) Option {
	return func(s *Service) { s.observe = fn }
}

func New(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger.Named("registration"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) report(o Outcome) {
	if s.observe != nil {
		s.observe(o)
	}
}

// Register handles a public self-service registration. A form matching an
// existing (number, category) under the same name re-enters that pilot as
// Pending; under a different name it is a kart-number conflict.
func (s *Service) Register(ctx context.Context, f Form) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.repo.GetSettings(ctx).RegistrationsOpen {
		s.report(OutcomeRejected)
		return Result{}, models.ErrRegistrationsClosed
	}

	roster := s.repo.GetPilots(ctx)
	categories := s.repo.GetCategories(ctx)
	if errs := ValidatePublic(roster, f, categories); !errs.Empty() {
		s.report(OutcomeRejected)
		return Result{}, errs
	}
	category, _ := models.ParseCategory(f.Category, categories)
	number := strings.TrimSpace(f.Number)
	name := util.Upper(f.Name)
	today := util.DateOnly(s.now())

	var res Result
	if idx, ok := findByNumber(roster, number, category, ""); ok {
		p := roster[idx]
		if util.Upper(p.Name) != name {
			s.report(OutcomeRejected)
			return Result{}, CheckKartNumber(roster, number, category, "")
		}
		p.Status = models.StatusPending
		p.MedicalLicense = orDefault(strings.TrimSpace(f.MedicalLicense), p.MedicalLicense)
		p.SportsLicense = orDefault(strings.TrimSpace(f.SportsLicense), p.SportsLicense)
		p.TransponderID = orDefault(util.Upper(f.TransponderID), p.TransponderID)
		p.BloodType = orDefault(strings.TrimSpace(f.BloodType), p.BloodType)
		p.EmergencyContact = orDefault(strings.TrimSpace(f.EmergencyContact), p.EmergencyContact)
		p.LastUpdated = today
		roster[idx] = p
		res = Result{Pilot: p, Outcome: OutcomeReRegistered}
	} else {
		p := models.Pilot{
			ID:               util.NewID(),
			Name:             name,
			Number:           number,
			Category:         category,
			Status:           models.StatusPending,
			Ranking:          parseRanking(f.Ranking),
			MedicalLicense:   strings.TrimSpace(f.MedicalLicense),
			SportsLicense:    strings.TrimSpace(f.SportsLicense),
			TransponderID:    orDefault(util.Upper(f.TransponderID), "TX-"+number),
			ConductPoints:    10,
			LastUpdated:      today,
			CreatedAt:        s.now().UnixMilli(),
			BloodType:        strings.TrimSpace(f.BloodType),
			EmergencyContact: strings.TrimSpace(f.EmergencyContact),
		}
		roster = append(roster, p)
		res = Result{Pilot: p, Outcome: OutcomeCreated}
	}

	if err := s.repo.SavePilots(ctx, roster); err != nil {
		return Result{}, err
	}
	s.logger.Info("registration",
		zap.String("outcome", string(res.Outcome)),
		zap.String("pilot", res.Pilot.ID),
		zap.String("category", category),
	)
	s.report(res.Outcome)
	return res, nil
}

// AdminSave creates a pilot (editID empty) or edits one in place.
func (s *Service) AdminSave(ctx context.Context, actor *models.AdminUser, f Form, editID string) (models.Pilot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.repo.GetPilots(ctx)
	idx := -1
	if editID != "" {
		var ok bool
		if idx, ok = findByID(roster, editID); !ok {
			return models.Pilot{}, models.NotFoundError{Resource: "pilot"}
		}
	}
	categories := s.repo.GetCategories(ctx)
	if errs := ValidateAdmin(roster, f, editID, categories); !errs.Empty() {
		return models.Pilot{}, errs
	}

	category, _ := models.ParseCategory(f.Category, categories)
	status := models.StatusConfirmed
	if strings.TrimSpace(f.Status) != "" {
		status, _ = models.ParseStatus(f.Status)
	}
	today := util.DateOnly(s.now())

	var p models.Pilot
	var action string
	if idx >= 0 {
		p = roster[idx]
		action = "Piloto editado: "
	} else {
		p = models.Pilot{
			ID:            util.NewID(),
			ConductPoints: 10,
			CreatedAt:     s.now().UnixMilli(),
		}
		action = "Nuevo piloto registrado: "
	}
	p.Name = util.Upper(f.Name)
	p.Number = strings.TrimSpace(f.Number)
	p.Category = category
	p.MedicalLicense = strings.TrimSpace(f.MedicalLicense)
	p.SportsLicense = strings.TrimSpace(f.SportsLicense)
	p.TransponderID = util.Upper(f.TransponderID)
	p.Ranking = parseRanking(f.Ranking)
	p.Status = status
	p.LastUpdated = today
	if v := strings.TrimSpace(f.BloodType); v != "" {
		p.BloodType = v
	}
	if v := strings.TrimSpace(f.EmergencyContact); v != "" {
		p.EmergencyContact = v
	}

	if idx >= 0 {
		roster[idx] = p
	} else {
		roster = append([]models.Pilot{p}, roster...)
	}
	if err := s.repo.SavePilots(ctx, roster); err != nil {
		return models.Pilot{}, err
	}
	return p, s.repo.AddLog(ctx, actor, "ADMIN", action+p.Name)
}

func (s *Service) Delete(ctx context.Context, actor *models.AdminUser, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.repo.GetPilots(ctx)
	idx, ok := findByID(roster, id)
	if !ok {
		return models.NotFoundError{Resource: "pilot"}
	}
	roster = append(roster[:idx:idx], roster[idx+1:]...)
	if err := s.repo.SavePilots(ctx, roster); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "ADMIN", "Piloto eliminado permanentemente ID: "+id)
}

// ResetForNewRace puts every pilot back to Pending and records one audit entry.
func (s *Service) ResetForNewRace(ctx context.Context, actor *models.AdminUser) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.repo.GetPilots(ctx)
	for i := range roster {
		roster[i].Status = models.StatusPending
	}
	if err := s.repo.SavePilots(ctx, roster); err != nil {
		return 0, err
	}
	return len(roster), s.repo.AddLog(ctx, actor, "EVENTO", "Reinicio masivo de inscripciones para nueva fecha")
}

// RankingRow is one line of an imported standings table.
type RankingRow struct {
	Name     string  `json:"name"`
	Number   string  `json:"number"`
	Category string  `json:"category"`
	Points   float64 `json:"points"`
}

// ImportRanking updates the points of known (number, category) pairs and adds
// the rest as confirmed pilots with placeholder licenses. Rows with an unknown
// category or a non-numeric kart number are skipped and counted.
func (s *Service) ImportRanking(ctx context.Context, actor *models.AdminUser, rows []RankingRow) (imported, skipped int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := s.repo.GetCategories(ctx)
	roster := s.repo.GetPilots(ctx)
	today := util.DateOnly(s.now())
	for _, row := range rows {
		number := strings.TrimSpace(row.Number)
		category, cerr := models.ParseCategory(row.Category, categories)
		if cerr != nil || !util.IsDigits(number) {
			s.logger.Info("ranking row skipped",
				zap.String("number", row.Number), zap.String("category", row.Category))
			skipped++
			continue
		}
		imported++
		if idx, ok := findByNumber(roster, number, category, ""); ok {
			roster[idx].Stats.Points = row.Points
			roster[idx].LastUpdated = today
			continue
		}
		roster = append(roster, models.Pilot{
			ID:             util.NewID(),
			Name:           util.Upper(row.Name),
			Number:         number,
			Category:       category,
			Status:         models.StatusConfirmed,
			Ranking:        DefaultRanking,
			MedicalLicense: "P_IMPORT",
			SportsLicense:  "P_IMPORT",
			TransponderID:  "TX-" + number,
			ConductPoints:  10,
			Stats:          models.PilotStats{Points: row.Points},
			LastUpdated:    today,
			CreatedAt:      s.now().UnixMilli(),
		})
	}
	if imported == 0 {
		return 0, skipped, nil
	}
	if err := s.repo.SavePilots(ctx, roster); err != nil {
		return 0, skipped, err
	}
	detail := fmt.Sprintf("Importados %d registros de ranking.", imported)
	if skipped > 0 {
		detail += fmt.Sprintf(" Omitidos %d.", skipped)
	}
	return imported, skipped, s.repo.AddLog(ctx, actor, "IMPORT", detail)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
