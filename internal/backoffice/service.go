// Package backoffice holds the administrative mutations of the portal:
// calendar, attendance, penalties, documents, press, staff, history,
// settings, marketplace and the track flag. Every mutation writes one audit
// entry attributed to the acting admin.
package backoffice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

type Repository interface {
	GetPilots(ctx context.Context) []models.Pilot
	GetChampionships(ctx context.Context) []models.Championship
	SaveChampionships(ctx context.Context, champs []models.Championship) error
	GetPenalties(ctx context.Context) []models.Penalty
	SavePenalties(ctx context.Context, penalties []models.Penalty) error
	GetRegulations(ctx context.Context) []models.Regulation
	SaveRegulations(ctx context.Context, regs []models.Regulation) error
	GetPressReleases(ctx context.Context) []models.PressRelease
	SavePressReleases(ctx context.Context, news []models.PressRelease) error
	GetAdminUsers(ctx context.Context) []models.AdminUser
	SaveAdminUsers(ctx context.Context, users []models.AdminUser) error
	GetSettings(ctx context.Context) models.SystemSettings
	SaveSettings(ctx context.Context, s models.SystemSettings) error
	GetMarketplace(ctx context.Context) []models.MarketplaceItem
	SaveMarketplace(ctx context.Context, items []models.MarketplaceItem) error
	GetTrackStatus(ctx context.Context) models.TrackFlag
	SaveTrackStatus(ctx context.Context, flag models.TrackFlag) error
	AddLog(ctx context.Context, actor *models.AdminUser, action, detail string) error
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger.Named("backoffice"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func findIndex[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

func without[T any](items []T, idx int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

func verb(editing bool, edited, created string) string {
	if editing {
		return edited
	}
	return created
}
