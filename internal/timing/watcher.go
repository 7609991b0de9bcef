package timing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

// SettingsWatcher polls the settings record and notifies handlers when it
// changes.
type SettingsWatcher struct {
	repo     SettingsSource
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	current  models.SystemSettings
	loaded   bool
	handlers []func(prev, next models.SystemSettings)
}

func NewSettingsWatcher(repo SettingsSource, interval time.Duration, logger *zap.Logger) *SettingsWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsWatcher{repo: repo, interval: interval, logger: logger}
}

func (w *SettingsWatcher) OnChange(fn func(prev, next models.SystemSettings)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, fn)
	w.mu.Unlock()
}

// Current returns the last settings read, reading them on first use.
func (w *SettingsWatcher) Current(ctx context.Context) models.SystemSettings {
	w.mu.Lock()
	loaded, cur := w.loaded, w.current
	w.mu.Unlock()
	if !loaded {
		w.Poll(ctx)
		w.mu.Lock()
		cur = w.current
		w.mu.Unlock()
	}
	return cur
}

// Poll reads settings once and reports whether they changed. The first
// read only primes the watcher.
func (w *SettingsWatcher) Poll(ctx context.Context) bool {
	next := w.repo.GetSettings(ctx)

	w.mu.Lock()
	prev, loaded := w.current, w.loaded
	w.current, w.loaded = next, true
	handlers := append([]func(prev, next models.SystemSettings){}, w.handlers...)
	w.mu.Unlock()

	if !loaded || prev == next {
		return false
	}
	w.logger.Debug("settings changed",
		zap.Bool("maintenance", next.MaintenanceMode),
		zap.Bool("registrations", next.RegistrationsOpen),
		zap.Bool("voting", next.ActiveVoting))
	for _, fn := range handlers {
		fn(prev, next)
	}
	return true
}

func (w *SettingsWatcher) Run(ctx context.Context) {
	w.Poll(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// AnnounceOrbits adds a ticker event when the Orbits address is switched on
// or changed.
func AnnounceOrbits(log *EventLog) func(prev, next models.SystemSettings) {
	return func(prev, next models.SystemSettings) {
		if !next.UseLocalOrbits || next.OrbitsIP == "" {
			return
		}
		if prev.UseLocalOrbits && prev.OrbitsIP == next.OrbitsIP {
			return
		}
		log.Add("CONECTANDO A ORBITS: "+next.OrbitsIP, EventInfo)
	}
}
