package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func ok(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// writeError maps domain errors onto status codes.
func (h *handler) writeError(c echo.Context, err error) error {
	var fields models.FieldErrors
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &fields):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrProtectedAccount):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrRegistrationsClosed), errors.Is(err, models.ErrVotingClosed):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrOffline):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.As(err, &httpErr):
		return httpErr
	default:
		h.Logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
