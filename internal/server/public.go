package server

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/textgen"
)

func (h *handler) registerPublic(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/pilots", h.listPilots)
	api.GET("/pilots/suggest", h.suggestPilots)
	api.GET("/pilots/lookup", h.lookupPilot)
	api.GET("/pilots/:id/bio", h.pilotBio)
	api.GET("/categories", func(c echo.Context) error { return ok(c, h.Repo.GetCategories(c.Request().Context())) })
	api.GET("/circuits", func(c echo.Context) error { return ok(c, h.Repo.GetCircuits(c.Request().Context())) })
	api.GET("/circuits/:id/tips", h.circuitTips)
	api.GET("/associations", func(c echo.Context) error { return ok(c, h.Repo.GetAssociations(c.Request().Context())) })
	api.GET("/championships", func(c echo.Context) error { return ok(c, h.Repo.GetChampionships(c.Request().Context())) })
	api.GET("/standings/:category/insight", h.standingsInsight)
	api.GET("/news", func(c echo.Context) error { return ok(c, h.Repo.GetPressReleases(c.Request().Context())) })
	api.GET("/news/digest", func(c echo.Context) error {
		return ok(c, echo.Map{"headline": h.Advisor.NewsDigest(c.Request().Context())})
	})
	api.GET("/penalties", h.listPenalties)
	api.GET("/regulations", h.listRegulations)
	api.GET("/regulations/search", h.searchRegulations)
	api.GET("/regulations/:id/file", h.regulationFile)
	api.GET("/marketplace", func(c echo.Context) error { return ok(c, h.Repo.GetMarketplace(c.Request().Context())) })
	api.POST("/marketplace", h.createListing, h.maintenance)
	api.GET("/settings", func(c echo.Context) error { return ok(c, h.Repo.GetSettings(c.Request().Context())) })
	api.GET("/track", func(c echo.Context) error {
		return ok(c, echo.Map{"flag": h.Repo.GetTrackStatus(c.Request().Context())})
	})
	api.GET("/votes", func(c echo.Context) error { return ok(c, h.Repo.GetVotes(c.Request().Context())) })
	api.POST("/votes/:pilotID", h.castVote, h.maintenance)
	api.POST("/registrations", h.register, h.maintenance)
	api.GET("/live", h.liveBoard)
	api.GET("/live/ws", h.liveSocket)
	api.POST("/assistant/chat", h.chat)
	api.GET("/reports/:kind", h.publicReport)
}

// listPilots filters by category ("Todas" or empty for all) and by a
// case-insensitive name or number substring.
func (h *handler) listPilots(c echo.Context) error {
	pilots := h.Repo.GetPilots(c.Request().Context())
	if h.Metrics != nil {
		h.Metrics.RosterSize(len(pilots))
	}
	return ok(c, filterPilots(pilots, c.QueryParam("category"), c.QueryParam("q")))
}

func filterPilots(pilots []models.Pilot, category, q string) []models.Pilot {
	q = strings.ToUpper(strings.TrimSpace(q))
	out := make([]models.Pilot, 0, len(pilots))
	for _, p := range pilots {
		if category != "" && category != "Todas" && p.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToUpper(p.Name), q) && !strings.Contains(p.Number, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (h *handler) suggestPilots(c echo.Context) error {
	return ok(c, h.Registration.Suggest(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category")))
}

func (h *handler) lookupPilot(c echo.Context) error {
	p, found := h.Registration.LookupNumber(c.Request().Context(), c.QueryParam("category"), c.QueryParam("number"))
	if !found {
		return h.writeError(c, models.NotFoundError{Resource: "pilot"})
	}
	return ok(c, p)
}

func (h *handler) findPilot(c echo.Context, id string) (models.Pilot, error) {
	for _, p := range h.Repo.GetPilots(c.Request().Context()) {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Pilot{}, models.NotFoundError{Resource: "pilot"}
}

func (h *handler) pilotBio(c echo.Context) error {
	p, err := h.findPilot(c, c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return ok(c, echo.Map{"bio": h.Advisor.PilotBio(c.Request().Context(), p)})
}

func (h *handler) circuitTips(c echo.Context) error {
	ctx := c.Request().Context()
	for _, ci := range h.Repo.GetCircuits(ctx) {
		if ci.ID != c.Param("id") {
			continue
		}
		surface := c.QueryParam("surface")
		if surface == "" {
			surface = ci.SurfaceStatus
		}
		return ok(c, echo.Map{"tips": h.Advisor.CircuitTips(ctx, ci.Name, surface)})
	}
	return h.writeError(c, models.NotFoundError{Resource: "circuit"})
}

func (h *handler) standingsInsight(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.Param("category")
	ranked := filterPilots(h.Repo.GetPilots(ctx), category, "")
	if len(ranked) == 0 {
		return h.writeError(c, models.NotFoundError{Resource: "category"})
	}
	sortByPoints(ranked)
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return ok(c, echo.Map{"insight": h.Advisor.AnalyzeStandings(ctx, category, ranked)})
}

func (h *handler) listPenalties(c echo.Context) error {
	all := h.Repo.GetPenalties(c.Request().Context())
	category := c.QueryParam("category")
	if category == "" || category == "Todas" {
		return ok(c, all)
	}
	out := make([]models.Penalty, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return ok(c, out)
}

// listRegulations returns published documents without their payloads.
func (h *handler) listRegulations(c echo.Context) error {
	regs := h.Repo.GetRegulations(c.Request().Context())
	out := make([]models.Regulation, 0, len(regs))
	for _, r := range regs {
		if r.IsDraft {
			continue
		}
		r.FileData = ""
		out = append(out, r)
	}
	return ok(c, out)
}

func (h *handler) searchRegulations(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, "q required")
	}
	ctx := c.Request().Context()
	return ok(c, echo.Map{"answer": h.Advisor.RegulationSearch(ctx, q, h.Repo.GetRegulations(ctx))})
}

func (h *handler) regulationFile(c echo.Context) error {
	for _, r := range h.Repo.GetRegulations(c.Request().Context()) {
		if r.ID != c.Param("id") {
			continue
		}
		payload := r.FileData
		if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i > 0 {
			payload = payload[i+1:]
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return h.writeError(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+r.ID+`.pdf"`)
		return c.Blob(http.StatusOK, "application/pdf", raw)
	}
	return h.writeError(c, models.NotFoundError{Resource: "regulation"})
}

func (h *handler) createListing(c echo.Context) error {
	var f backoffice.ListingForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	item, err := h.Backoffice.SaveListing(c.Request().Context(), nil, f)
	if err != nil {
		return h.writeError(c, err)
	}
	return created(c, item)
}

func (h *handler) castVote(c echo.Context) error {
	ctx := c.Request().Context()
	if !h.Repo.GetSettings(ctx).ActiveVoting {
		return h.writeError(c, models.ErrVotingClosed)
	}
	id := c.Param("pilotID")
	if _, err := h.findPilot(c, id); err != nil {
		return h.writeError(c, err)
	}
	n, err := h.Repo.CastVote(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	if h.Metrics != nil {
		h.Metrics.VoteCast()
	}
	return ok(c, echo.Map{"pilotId": id, "votes": n})
}

func (h *handler) register(c echo.Context) error {
	var f registration.Form
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Registration.Register(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	if res.Outcome == registration.OutcomeCreated {
		return created(c, res)
	}
	return ok(c, res)
}

func (h *handler) chat(c echo.Context) error {
	var req struct {
		History []textgen.Turn `json:"history"`
		Message string         `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return badRequest(c, "message required")
	}
	return ok(c, echo.Map{"reply": h.Advisor.Chat(c.Request().Context(), req.History, req.Message)})
}
