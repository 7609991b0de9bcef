package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/timing"
)

const maxLicenseImage = 8 << 20

func (h *handler) registerAdmin(e *echo.Echo) {
	e.POST("/api/admin/login", h.login)

	g := e.Group("/api/admin", h.requireAdmin)
	g.POST("/logout", h.logout)
	g.GET("/me", func(c echo.Context) error { return ok(c, actor(c)) })

	g.POST("/pilots", h.savePilot)
	g.PUT("/pilots/:id", h.savePilot)
	g.DELETE("/pilots/:id", h.deletePilot)
	g.POST("/pilots/reset", h.resetRace)
	g.POST("/pilots/import", h.importRanking)
	g.POST("/pilots/license-scan", h.scanLicense)

	g.POST("/championships/:champID/events", h.saveEvent)
	g.PUT("/championships/:champID/events/:eventID", h.saveEvent)
	g.DELETE("/championships/:champID/events/:eventID", h.deleteEvent)
	g.POST("/championships/:champID/events/:eventID/briefing/:pilotID", h.signBriefing)
	g.PUT("/championships/:champID/events/:eventID/scrutiny/:pilotID", h.setScrutiny)

	g.POST("/penalties", h.addPenalty)
	g.DELETE("/penalties/:id", h.deletePenalty)

	g.GET("/regulations", func(c echo.Context) error { return ok(c, h.Repo.GetRegulations(c.Request().Context())) })
	g.POST("/regulations", h.saveRegulation)
	g.PUT("/regulations/:id", h.saveRegulation)
	g.DELETE("/regulations/:id", h.deleteRegulation)

	g.POST("/news", h.savePress)
	g.PUT("/news/:id", h.savePress)
	g.DELETE("/news/:id", h.deletePress)

	g.GET("/staff", func(c echo.Context) error { return ok(c, h.Backoffice.ListStaff(c.Request().Context())) })
	g.POST("/staff", h.saveStaff)
	g.PUT("/staff/:id", h.saveStaff)
	g.DELETE("/staff/:id", h.deleteStaff)

	g.POST("/history", h.saveHistory)
	g.POST("/history/:id/champions", h.addChampion)

	g.PATCH("/settings", h.updateSettings)
	g.PUT("/track", h.setTrack)
	g.DELETE("/marketplace/:id", h.deleteListing)

	g.GET("/logs", func(c echo.Context) error { return ok(c, h.Repo.GetAuditLogs(c.Request().Context())) })
	g.GET("/logs/analysis", h.analyzeLogs)

	g.GET("/monitor", h.monitorState)
	g.PUT("/monitor", h.setMonitor)
	g.POST("/lottery", h.lottery)
	g.POST("/race-summary", h.raceSummary)

	g.GET("/reports/:kind", h.adminReport)
	g.GET("/export-link/:kind", h.exportLink)
}

func (h *handler) login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	token, user, err := h.Sessions.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ok(c, echo.Map{"token": token, "user": user})
}

func (h *handler) logout(c echo.Context) error {
	if err := h.Sessions.Logout(c.Request().Context(), sessionToken(c)); err != nil {
		return h.writeError(c, err)
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) savePilot(c echo.Context) error {
	var f registration.Form
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Registration.AdminSave(c.Request().Context(), actor(c), f, c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	if c.Param("id") == "" {
		return created(c, p)
	}
	return ok(c, p)
}

func (h *handler) deletePilot(c echo.Context) error {
	if err := h.Registration.Delete(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) resetRace(c echo.Context) error {
	n, err := h.Registration.ResetForNewRace(c.Request().Context(), actor(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, echo.Map{"reset": n})
}

// importRanking accepts parsed rows, or free text that the language model
// turns into rows first.
func (h *handler) importRanking(c echo.Context) error {
	var req struct {
		Rows []registration.RankingRow `json:"rows"`
		Text string                    `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	rows := req.Rows
	if len(rows) == 0 && strings.TrimSpace(req.Text) != "" {
		parsed, err := h.Advisor.ParseRanking(ctx, req.Text)
		if err != nil {
			return h.writeError(c, err)
		}
		rows = parsed
	}
	n, skipped, err := h.Registration.ImportRanking(ctx, actor(c), rows)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, echo.Map{"imported": n, "skipped": skipped, "rows": rows})
}

// scanLicense reads a license photo, sent either as multipart "image" or
// as JSON {image: base64, mimeType}.
func (h *handler) scanLicense(c echo.Context) error {
	var (
		data []byte
		mime string
	)
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "invalid image")
		}
		defer f.Close()
		data, err = io.ReadAll(io.LimitReader(f, maxLicenseImage))
		if err != nil {
			return badRequest(c, "invalid image")
		}
		mime = fh.Header.Get(echo.HeaderContentType)
	} else {
		var req struct {
			Image    string `json:"image"`
			MimeType string `json:"mimeType"`
		}
		if err := c.Bind(&req); err != nil || req.Image == "" {
			return badRequest(c, "image required")
		}
		data, err = base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return badRequest(c, "image must be base64")
		}
		mime = req.MimeType
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	lic, err := h.Advisor.ExtractLicense(c.Request().Context(), data, mime)
	if err != nil {
		return h.writeError(c, err)
	}
	if lic == nil {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "no se pudo leer la licencia"})
	}
	return ok(c, lic)
}

func (h *handler) saveEvent(c echo.Context) error {
	var f backoffice.EventForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	if id := c.Param("eventID"); id != "" {
		f.ID = id
	}
	ev, err := h.Backoffice.SaveEvent(c.Request().Context(), actor(c), c.Param("champID"), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, ev)
}

func (h *handler) deleteEvent(c echo.Context) error {
	if err := h.Backoffice.DeleteEvent(c.Request().Context(), actor(c), c.Param("champID"), c.Param("eventID")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) signBriefing(c echo.Context) error {
	err := h.Backoffice.SignBriefing(c.Request().Context(), actor(c), c.Param("champID"), c.Param("eventID"), c.Param("pilotID"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) setScrutiny(c echo.Context) error {
	var req struct {
		Passed bool `json:"passed"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	err := h.Backoffice.SetScrutiny(c.Request().Context(), actor(c), c.Param("champID"), c.Param("eventID"), c.Param("pilotID"), req.Passed)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) addPenalty(c echo.Context) error {
	var f backoffice.PenaltyForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Backoffice.AddPenalty(c.Request().Context(), actor(c), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return created(c, p)
}

func (h *handler) deletePenalty(c echo.Context) error {
	if err := h.Backoffice.DeletePenalty(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) saveRegulation(c echo.Context) error {
	var f backoffice.RegulationForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	if id := c.Param("id"); id != "" {
		f.ID = id
	}
	r, err := h.Backoffice.SaveRegulation(c.Request().Context(), actor(c), f)
	if err != nil {
		return h.writeError(c, err)
	}
	r.FileData = ""
	return ok(c, r)
}

func (h *handler) deleteRegulation(c echo.Context) error {
	if err := h.Backoffice.DeleteRegulation(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) savePress(c echo.Context) error {
	var f backoffice.PressForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	if id := c.Param("id"); id != "" {
		f.ID = id
	}
	p, err := h.Backoffice.SavePressRelease(c.Request().Context(), actor(c), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, p)
}

func (h *handler) deletePress(c echo.Context) error {
	if err := h.Backoffice.DeletePressRelease(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) saveStaff(c echo.Context) error {
	var f backoffice.StaffForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	if id := c.Param("id"); id != "" {
		f.ID = id
	}
	u, err := h.Backoffice.SaveStaff(c.Request().Context(), actor(c), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, u.Public())
}

func (h *handler) deleteStaff(c echo.Context) error {
	if err := h.Backoffice.DeleteStaff(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) saveHistory(c echo.Context) error {
	var f backoffice.HistoryForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	ch, err := h.Backoffice.SaveHistory(c.Request().Context(), actor(c), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, ch)
}

func (h *handler) addChampion(c echo.Context) error {
	var champ models.Champion
	if err := c.Bind(&champ); err != nil {
		return badRequest(c, "invalid body")
	}
	ch, err := h.Backoffice.AddChampion(c.Request().Context(), actor(c), c.Param("id"), champ)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, ch)
}

func (h *handler) updateSettings(c echo.Context) error {
	var patch backoffice.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.Backoffice.UpdateSettings(c.Request().Context(), actor(c), patch)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, s)
}

func (h *handler) setTrack(c echo.Context) error {
	var req struct {
		Flag string `json:"flag"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	flag, err := h.Backoffice.SetTrackFlag(c.Request().Context(), actor(c), req.Flag)
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, echo.Map{"flag": flag})
}

func (h *handler) deleteListing(c echo.Context) error {
	if err := h.Backoffice.DeleteListing(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) analyzeLogs(c echo.Context) error {
	ctx := c.Request().Context()
	return ok(c, echo.Map{"analysis": h.Advisor.AnalyzeAuditLogs(ctx, h.Repo.GetAuditLogs(ctx))})
}

func (h *handler) monitorState(c echo.Context) error {
	return ok(c, echo.Map{"enabled": h.Monitor.Enabled(), "antennas": h.Monitor.State()})
}

func (h *handler) setMonitor(c echo.Context) error {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	h.Monitor.SetEnabled(req.Enabled)
	return h.monitorState(c)
}

func (h *handler) lottery(c echo.Context) error {
	ctx := c.Request().Context()
	draws := timing.MotorLottery(h.Repo.GetPilots(ctx), nil)
	if err := h.Repo.AddLog(ctx, actor(c), "PISTA", "Sorteo de motores realizado"); err != nil {
		return h.writeError(c, err)
	}
	return ok(c, draws)
}

func (h *handler) raceSummary(c echo.Context) error {
	var req struct {
		Category string `json:"category"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	board := h.Live.Latest(ctx)
	return ok(c, echo.Map{"summary": h.Advisor.RaceSummary(ctx, req.Category, board.Rows)})
}
