package server

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"kdo-portal/internal/models"
	"kdo-portal/internal/report"
	"kdo-portal/internal/util"
)

// Reports anyone may download from the public pages.
var publicReports = map[report.Kind]bool{
	report.KindPadron:    true,
	report.KindStandings: true,
	report.KindLive:      true,
}

func sortByPoints(pilots []models.Pilot) {
	sort.SliceStable(pilots, func(i, j int) bool { return pilots[i].Stats.Points > pilots[j].Stats.Points })
}

func (h *handler) reportInput(c echo.Context) report.Input {
	ctx := c.Request().Context()
	in := report.Input{
		Pilots:       h.Repo.GetPilots(ctx),
		Categories:   h.Repo.GetCategories(ctx),
		Category:     c.QueryParam("category"),
		Championship: c.QueryParam("championship"),
		Session:      c.QueryParam("session"),
		Event:        c.QueryParam("event"),
		Now:          h.Now(),
	}
	if h.Live != nil {
		b := h.Live.Latest(ctx)
		in.Flag = b.Flag
		in.Timing = b.Rows
	}
	return in
}

func (h *handler) renderReport(c echo.Context, kind report.Kind, format report.Format) error {
	doc, err := report.Build(kind, h.reportInput(c))
	if err != nil {
		return badRequest(c, err.Error())
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, format, doc); err != nil {
		return h.writeError(c, err)
	}
	name := fmt.Sprintf("KDO_%s_%s.%s", kind, util.DateOnly(h.Now()), format.Extension())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *handler) publicReport(c echo.Context) error {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil || !publicReports[kind] {
		return h.writeError(c, models.NotFoundError{Resource: "report"})
	}
	format, err := report.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	return h.renderReport(c, kind, format)
}

// adminReport renders any report. Roster and results downloads are audited.
func (h *handler) adminReport(c echo.Context) error {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		return h.writeError(c, models.NotFoundError{Resource: "report"})
	}
	format, err := report.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	category := c.QueryParam("category")
	if category == "" {
		category = "Todas"
	}
	ctx := c.Request().Context()
	switch kind {
	case report.KindEntries, report.KindPadron:
		err = h.Repo.AddLog(ctx, actor(c), "PADRON", "Descargado listado de pilotos: "+category)
	case report.KindResults:
		err = h.Repo.AddLog(ctx, actor(c), "RESULTADOS", fmt.Sprintf("Exportada Clasificación Oficial: %s - %s", category, c.QueryParam("session")))
	case report.KindBriefing:
		err = h.Repo.AddLog(ctx, actor(c), "EVENTO", "Descargada planilla de briefing: "+c.QueryParam("event"))
	}
	if err != nil {
		return h.writeError(c, err)
	}
	return h.renderReport(c, kind, format)
}

func exportToken(secret string, kind report.Kind) string {
	return util.HMACSHA256Hex(secret, "export:"+string(kind))
}

// exportLink returns a shareable CSV link signed with the export secret.
func (h *handler) exportLink(c echo.Context) error {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		return h.writeError(c, models.NotFoundError{Resource: "report"})
	}
	return ok(c, echo.Map{"url": ExportURL(h.Config.BasePublicURL, h.Config.ExportSecret, kind)})
}

// ExportURL builds the signed CSV link for a report.
func ExportURL(base, secret string, kind report.Kind) string {
	return fmt.Sprintf("%s/export/%s.csv?token=%s", base, kind, exportToken(secret, kind))
}

func (h *handler) signedExport(c echo.Context) error {
	file := c.Param("file")
	token := c.QueryParam("token")
	if !strings.HasSuffix(file, ".csv") || token == "" {
		return badRequest(c, "report and token required")
	}
	kind, err := report.ParseKind(strings.TrimSuffix(file, ".csv"))
	if err != nil {
		return h.writeError(c, models.NotFoundError{Resource: "report"})
	}
	if token != exportToken(h.Config.ExportSecret, kind) {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "invalid token"})
	}
	return h.renderReport(c, kind, report.FormatCSV)
}
