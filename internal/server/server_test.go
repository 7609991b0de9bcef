package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/config"
	"kdo-portal/internal/metrics"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/report"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/session"
	"kdo-portal/internal/storage"
	"kdo-portal/internal/textgen"
	"kdo-portal/internal/timing"
)

const (
	testPassword = "pista-2026"
	testSecret   = "export-secret"
)

type fixture struct {
	e    *echo.Echo
	repo *repository.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := zap.NewNop()
	clock := func() time.Time { return time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC) }
	repo := repository.New(storage.NewMemory(), log, repository.WithBootstrapPassword(testPassword))

	events := &timing.EventLog{}
	sim := timing.NewSimulator(rand.New(rand.NewPCG(1, 2)), events)
	selector := timing.NewSelector("simulator", repo, sim, nil, log)

	e := NewEcho(Deps{
		Config:       config.Config{BasePublicURL: "https://kdo.example", ExportSecret: testSecret},
		Repo:         repo,
		Registration: registration.New(repo, log, registration.WithClock(clock)),
		Backoffice:   backoffice.New(repo, log, backoffice.WithClock(clock)),
		Sessions:     session.NewManager(repo, log),
		Advisor:      textgen.NewAdvisor(nil, log),
		Live:         timing.NewLive(selector, repo, events, time.Second, log),
		Monitor:      timing.NewMonitor(rand.New(rand.NewPCG(3, 4)), time.Second, log),
		Metrics:      metrics.New(nil),
		Logger:       log,
		Now:          clock,
	})
	return fixture{e: e, repo: repo}
}

func (f fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f fixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string            `json:"token"`
		User  models.AdminUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	assert.Empty(t, out.User.PasswordHash)
	return out.Token
}

func registrationForm(name, number string) map[string]string {
	return map[string]string{
		"name":           name,
		"number":         number,
		"category":       "Clase 1",
		"ranking":        "5",
		"medicalLicense": "M-" + number,
		"sportsLicense":  "S-" + number,
	}
}

func TestAdminSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := f.login(t)
	rec = f.do(t, http.MethodGet, "/api/admin/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)

	rec = f.do(t, http.MethodPost, "/api/admin/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/admin/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginCookieAuthenticates(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "ADMIN ", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/api/registrations", registrationForm("lucas diaz", "77"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"outcome":"created"`)
	assert.Contains(t, rec.Body.String(), `"name":"LUCAS DIAZ"`)

	rec = f.do(t, http.MethodPost, "/api/registrations", registrationForm("Lucas Diaz", "77"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"re-registered"`)

	clash := registrationForm("Otro Piloto", "77")
	clash["medicalLicense"] = "M-900"
	rec = f.do(t, http.MethodPost, "/api/registrations", clash, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "El número 77 ya existe en Clase 1", body.Fields["number"])

	rec = f.do(t, http.MethodPost, "/api/registrations", map[string]string{"name": "x"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	settings := f.repo.GetSettings(ctx)
	settings.RegistrationsOpen = false
	require.NoError(t, f.repo.SaveSettings(ctx, settings))
	rec = f.do(t, http.MethodPost, "/api/registrations", registrationForm("Nuevo Piloto", "78"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Len(t, f.repo.GetPilots(ctx), 5)
}

func TestMaintenanceBlocksPublicWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	settings := f.repo.GetSettings(ctx)
	settings.MaintenanceMode = true
	require.NoError(t, f.repo.SaveSettings(ctx, settings))

	rec := f.do(t, http.MethodPost, "/api/registrations", registrationForm("Lucas Diaz", "77"), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/votes/1", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/pilots", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVoting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/api/votes/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/votes/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"votes":2`)

	rec = f.do(t, http.MethodPost, "/api/votes/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	settings := f.repo.GetSettings(ctx)
	settings.ActiveVoting = false
	require.NoError(t, f.repo.SaveSettings(ctx, settings))
	rec = f.do(t, http.MethodPost, "/api/votes/1", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 2, f.repo.GetVotes(ctx)["1"])

	rec = f.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kdo_votes_cast_total 2")
}

func TestPilotFilters(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/pilots?category=Supermaster", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pilots []models.Pilot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pilots))
	require.Len(t, pilots, 1)
	assert.Equal(t, "FRANCISCO PEROYE", pilots[0].Name)

	rec = f.do(t, http.MethodGet, "/api/pilots?q=ramirez", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pilots))
	require.Len(t, pilots, 1)
	assert.Equal(t, "2", pilots[0].ID)

	rec = f.do(t, http.MethodGet, "/api/pilots/lookup?category=KDO+Power&number=12", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "MARTIN GARCIA")
	rec = f.do(t, http.MethodGet, "/api/pilots/lookup?category=KDO+Power&number=999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOfflineAssistantFallsBack(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/assistant/chat", map[string]any{"message": "¿Cuándo es la próxima fecha?"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out["reply"])

	rec = f.do(t, http.MethodPost, "/api/assistant/chat", map[string]any{"message": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignedExport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/export/inscriptos.csv?token=forged", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(t, http.MethodGet, "/export/inscriptos.csv", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	link := ExportURL("https://kdo.example", testSecret, report.KindEntries)
	require.True(t, strings.HasPrefix(link, "https://kdo.example/export/inscriptos.csv?token="))
	path := strings.TrimPrefix(link, "https://kdo.example")

	rec = f.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "KDO_inscriptos_")
	assert.Contains(t, rec.Body.String(), "JUAN ACOSTA")
}

func TestExportLinkRequiresSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/admin/export-link/inscriptos", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := f.login(t)
	rec = f.do(t, http.MethodGet, "/api/admin/export-link/inscriptos", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ExportURL("https://kdo.example", testSecret, report.KindEntries))
}

func TestPublicReports(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/reports/padron?category=KDO+Power", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PEDRO RAMIREZ")
	assert.NotContains(t, rec.Body.String(), "FRANCISCO PEROYE")

	rec = f.do(t, http.MethodGet, "/api/reports/live?format=yaml", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))

	rec = f.do(t, http.MethodGet, "/api/reports/briefing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/reports/padron?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminReportIsAudited(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/api/admin/reports/briefing?format=text&event=Fecha+1", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := f.repo.GetAuditLogs(context.Background())
	require.NotEmpty(t, logs)
	assert.Equal(t, "EVENTO", logs[0].Action)
	assert.Contains(t, logs[0].Details, "Fecha 1")
}

func TestAdminRosterOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/admin/pilots/reset", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reset":4}`, rec.Body.String())
	for _, p := range f.repo.GetPilots(ctx) {
		assert.Equal(t, models.StatusPending, p.Status)
	}

	rec = f.do(t, http.MethodPost, "/api/admin/pilots/import", map[string]any{
		"rows": []registration.RankingRow{{Name: "Nuevo Importado", Number: "55", Category: "Clase 2", Points: 40}},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":1`)
	assert.Contains(t, rec.Body.String(), `"skipped":0`)
	assert.Len(t, f.repo.GetPilots(ctx), 5)

	rec = f.do(t, http.MethodDelete, "/api/admin/pilots/4", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/admin/pilots/4", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminLicenseScanOffline(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/admin/pilots/license-scan", map[string]string{"image": "aGVsbG8="}, token)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/admin/pilots/license-scan", map[string]string{"image": "%%%"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedAdminCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodDelete, "/api/admin/staff/"+repository.ProtectedAdminID, nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, f.repo.GetAdminUsers(context.Background()), 1)
}

func TestAdminTrackAndMonitor(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPut, "/api/admin/track", map[string]string{"flag": "roja"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FlagRed, f.repo.GetTrackStatus(context.Background()))

	rec = f.do(t, http.MethodGet, "/api/live", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board timing.Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Equal(t, models.FlagRed, board.Flag)
	assert.Equal(t, timing.StatusSimulated, board.Connection)

	rec = f.do(t, http.MethodPut, "/api/admin/monitor", map[string]bool{"enabled": false}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":false`)

	rec = f.do(t, http.MethodPost, "/api/admin/lottery", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var draws []timing.Draw
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draws))
	assert.Len(t, draws, 4)
}
