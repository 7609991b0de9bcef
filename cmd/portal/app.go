package main

import (
	"context"

	"go.uber.org/zap"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/config"
	"kdo-portal/internal/metrics"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/session"
	"kdo-portal/internal/storage"
	"kdo-portal/internal/textgen"
	"kdo-portal/internal/timing"
)

// app holds every long-lived component, wired once per command.
type app struct {
	store        storage.Store
	metrics      *metrics.Metrics
	repo         *repository.Repository
	registration *registration.Service
	backoffice   *backoffice.Service
	sessions     *session.Manager
	advisor      *textgen.Advisor
	live         *timing.Live
	monitor      *timing.Monitor
	watcher      *timing.SettingsWatcher
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	m := metrics.New(nil)

	if cfg.BootstrapAdminPassword == "" {
		logger.Warn("BOOTSTRAP_ADMIN_PASSWORD is empty; the seeded admin cannot log in")
	}
	repo := repository.New(store, logger,
		repository.WithCategories(cfg.Categories),
		repository.WithBootstrapPassword(cfg.BootstrapAdminPassword),
		repository.WithAuditHook(func(e models.AuditLog) { m.AuditEntry(e.Action) }),
	)

	var gen textgen.Generator
	if cfg.GeminiAPIKey != "" && !cfg.TextgenOffline {
		g, err := textgen.NewGenAI(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("text generation disabled", zap.Error(err))
		} else {
			gen = g
		}
	}
	advisor := textgen.NewAdvisor(gen, logger.Named("textgen"),
		textgen.WithOffline(cfg.TextgenOffline),
		textgen.WithObserver(m.GatewayCall),
	)

	events := &timing.EventLog{}
	orbits := func(ip string) timing.Feed { return timing.NewOrbitsFeed(ip, nil) }
	selector := timing.NewSelector(cfg.TimingSource, repo, timing.NewSimulator(nil, events), orbits, logger)
	watcher := timing.NewSettingsWatcher(repo, cfg.SettingsPollInterval, logger)
	watcher.OnChange(timing.AnnounceOrbits(events))

	return &app{
		store:   store,
		metrics: m,
		repo:    repo,
		registration: registration.New(repo, logger, registration.WithObserver(func(o registration.Outcome) {
			m.Registration(string(o))
		})),
		backoffice: backoffice.New(repo, logger),
		sessions:   session.NewManager(repo, logger),
		advisor:    advisor,
		live:       timing.NewLive(selector, repo, events, cfg.TimingInterval, logger),
		monitor:    timing.NewMonitor(nil, cfg.MonitorInterval, logger),
		watcher:    watcher,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
