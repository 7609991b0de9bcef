// Package server exposes the portal over HTTP: the public JSON API, the admin
// back-office API, live timing over websocket, signed CSV exports, metrics
// and the single-page app.
package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/config"
	"kdo-portal/internal/metrics"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/session"
	"kdo-portal/internal/textgen"
	"kdo-portal/internal/timing"
)

type Deps struct {
	Config       config.Config
	Repo         *repository.Repository
	Registration *registration.Service
	Backoffice   *backoffice.Service
	Sessions     *session.Manager
	Advisor      *textgen.Advisor
	Live         *timing.Live
	Monitor      *timing.Monitor
	Metrics      *metrics.Metrics
	Static       http.Handler
	Logger       *zap.Logger
	Now          func() time.Time
}

type handler struct {
	Deps
}

// NewEcho builds the router with every route registered.
func NewEcho(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handler{Deps: d}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(h.requestLogger())

	h.registerPublic(e)
	h.registerAdmin(e)

	e.GET("/export/:file", h.signedExport)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	if d.Static != nil {
		e.GET("/*", echo.WrapHandler(d.Static))
	}
	return e
}

func New(d Deps) *http.Server {
	return &http.Server{
		Addr:              d.Config.HTTPAddr,
		Handler:           NewEcho(d),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (h *handler) requestLogger() echo.MiddlewareFunc {
	log := h.Logger.Named("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Debug("request", fields...)
			return nil
		},
	})
}
