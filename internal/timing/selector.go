package timing

import (
	"context"

	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

type SettingsSource interface {
	GetSettings(ctx context.Context) models.SystemSettings
}

// Selector picks the feed for each snapshot. Source "simulator" always
// simulates; "orbits" always tries the configured server; "auto" follows
// the useLocalOrbits setting. A failed or empty Orbits read falls back to
// the simulator and reports the board as disconnected.
type Selector struct {
	source   string
	settings SettingsSource
	sim      Feed
	orbits   func(ip string) Feed
	logger   *zap.Logger
}

func NewSelector(source string, settings SettingsSource, sim Feed, orbits func(ip string) Feed, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if orbits == nil {
		orbits = func(ip string) Feed { return NewOrbitsFeed(ip, nil) }
	}
	return &Selector{source: source, settings: settings, sim: sim, orbits: orbits, logger: logger}
}

func (s *Selector) Snapshot(ctx context.Context) ([]models.TimingRow, string) {
	ip := ""
	switch s.source {
	case "simulator":
	case "orbits":
		ip = s.settings.GetSettings(ctx).OrbitsIP
		if ip == "" {
			return s.simulate(ctx, StatusDisconnected)
		}
	default:
		st := s.settings.GetSettings(ctx)
		if st.UseLocalOrbits && st.OrbitsIP != "" {
			ip = st.OrbitsIP
		}
	}
	if ip == "" {
		return s.simulate(ctx, StatusSimulated)
	}

	rows, err := s.orbits(ip).Snapshot(ctx)
	if err != nil {
		s.logger.Debug("orbits feed unavailable", zap.String("ip", ip), zap.Error(err))
		return s.simulate(ctx, StatusDisconnected)
	}
	if len(rows) == 0 {
		return s.simulate(ctx, StatusDisconnected)
	}
	return rows, StatusConnected
}

func (s *Selector) simulate(ctx context.Context, status string) ([]models.TimingRow, string) {
	rows, err := s.sim.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("simulator failed", zap.Error(err))
		return []models.TimingRow{}, status
	}
	return rows, status
}
