package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kdo-portal/internal/models"
)

const (
	sessionHeader = "X-Session-Token"
	sessionCookie = "kdo_session"
	adminKey      = "admin"
)

func sessionToken(c echo.Context) string {
	if t := strings.TrimSpace(c.Request().Header.Get(sessionHeader)); t != "" {
		return t
	}
	if ck, err := c.Cookie(sessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// requireAdmin resolves the session once and stores the admin on the
// request context for the handlers below it.
func (h *handler) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := sessionToken(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "session required"})
		}
		admin := h.Sessions.Current(c.Request().Context(), token)
		if admin == nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "session expired"})
		}
		c.Set(adminKey, admin)
		return next(c)
	}
}

func actor(c echo.Context) *models.AdminUser {
	a, _ := c.Get(adminKey).(*models.AdminUser)
	return a
}

// maintenance blocks public writes while the portal is in maintenance mode.
func (h *handler) maintenance(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.Repo.GetSettings(c.Request().Context()).MaintenanceMode {
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "portal en mantenimiento"})
		}
		return next(c)
	}
}
