package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kdo-portal/internal/offline"
	"kdo-portal/internal/server"
	"kdo-portal/internal/tgbot"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP portal, the timing loops and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	static := offline.New(http.FileServer(http.Dir(cfg.StaticDir)), cfg.AssetCacheTTL, logger.Named("offline"))
	static.Prime()

	httpSrv := server.New(server.Deps{
		Config:       cfg,
		Repo:         a.repo,
		Registration: a.registration,
		Backoffice:   a.backoffice,
		Sessions:     a.sessions,
		Advisor:      a.advisor,
		Live:         a.live,
		Monitor:      a.monitor,
		Metrics:      a.metrics,
		Static:       static,
		Logger:       logger,
	})

	go a.live.Run(ctx)
	go a.monitor.Run(ctx)
	go a.watcher.Run(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.TelegramToken != "" {
		botApp, err := tgbot.New(cfg, tgbot.Deps{
			Repo:         a.repo,
			Registration: a.registration,
			Backoffice:   a.backoffice,
			Live:         a.live,
			Metrics:      a.metrics,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := botApp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot stopped", zap.Error(err))
				cancel()
			}
		}()
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN is empty; bot disabled")
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("bye")
	return nil
}
