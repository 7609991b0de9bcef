package textgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

type scriptedGen struct {
	replies []string
	errs    []error
	reqs    []Request
}

func (g *scriptedGen) Generate(_ context.Context, req Request) (string, error) {
	i := len(g.reqs)
	g.reqs = append(g.reqs, req)
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	if len(g.replies) > 0 {
		return g.replies[len(g.replies)-1], nil
	}
	return "", nil
}

func newTestAdvisor(gen Generator, opts ...Option) (*Advisor, *fakeTimer, *[]string) {
	r, timer := testRetrier()
	var outcomes []string
	opts = append([]Option{WithRetrier(r), WithObserver(func(o string) { outcomes = append(outcomes, o) })}, opts...)
	return NewAdvisor(gen, zap.NewNop(), opts...), timer, &outcomes
}

func TestAdvisorOfflineUsesCannedReplies(t *testing.T) {
	gen := &scriptedGen{replies: []string{"nunca"}}
	a, _, outcomes := newTestAdvisor(gen, WithOffline(true))
	ctx := context.Background()

	assert.Equal(t, FallbackChat, a.Chat(ctx, nil, "hola"))
	assert.Equal(t, FallbackNews, a.NewsDigest(ctx))
	assert.Equal(t, FallbackRaceOffline, a.RaceSummary(ctx, "Menores", nil))

	rows, err := a.ParseRanking(ctx, "JUAN 7 Menores 20")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = a.ExtractLicense(ctx, []byte{1}, "image/png")
	require.ErrorIs(t, err, models.ErrOffline)

	assert.Empty(t, gen.reqs)
	assert.Equal(t, OutcomeOffline, (*outcomes)[0])
}

func TestAdvisorNilGeneratorIsOffline(t *testing.T) {
	a := NewAdvisor(nil, nil)
	assert.False(t, a.Online())
	assert.Equal(t, FallbackBio, a.PilotBio(context.Background(), models.Pilot{Name: "JUAN"}))
}

func TestAdvisorFallsBackAfterExhaustedRetries(t *testing.T) {
	gen := &scriptedGen{errs: []error{errUnavailable, errUnavailable, errUnavailable}}
	a, timer, outcomes := newTestAdvisor(gen)

	out := a.RaceSummary(context.Background(), "Menores", []models.TimingRow{{Pos: 1, No: "7", Name: "JUAN"}})
	assert.Equal(t, FallbackRaceError, out)
	assert.Len(t, gen.reqs, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.waits)
	assert.Equal(t, []string{OutcomeFallback}, *outcomes)
}

func TestAdvisorReturnsModelTextAfterRetry(t *testing.T) {
	gen := &scriptedGen{errs: []error{errUnavailable, nil}, replies: []string{"", "Arranca la temporada 2026"}}
	a, timer, outcomes := newTestAdvisor(gen)

	assert.Equal(t, "Arranca la temporada 2026", a.NewsDigest(context.Background()))
	assert.Equal(t, []time.Duration{time.Second}, timer.waits)
	assert.Equal(t, []string{OutcomeOK}, *outcomes)
}

func TestChatSendsInstructionAndHistory(t *testing.T) {
	gen := &scriptedGen{replies: []string{"Bienvenido"}}
	a, _, _ := newTestAdvisor(gen)

	history := []Turn{{Role: "user", Text: "hola"}, {Role: "model", Text: "buenas"}}
	assert.Equal(t, "Bienvenido", a.Chat(context.Background(), history, "¿cuándo corre Menores?"))
	require.Len(t, gen.reqs, 1)
	assert.Equal(t, chatInstruction, gen.reqs[0].System)
	assert.Equal(t, history, gen.reqs[0].History)
	assert.Equal(t, "¿cuándo corre Menores?", gen.reqs[0].Prompt)
}

func TestAnalyzeAuditLogsSendsTenMostRecent(t *testing.T) {
	gen := &scriptedGen{replies: []string{"ok"}}
	a, _, _ := newTestAdvisor(gen)
	logs := make([]models.AuditLog, 15)
	for i := range logs {
		logs[i] = models.AuditLog{ID: string(rune('a' + i)), Action: "ADMIN"}
	}
	a.AnalyzeAuditLogs(context.Background(), logs)
	require.Len(t, gen.reqs, 1)
	assert.Contains(t, gen.reqs[0].Prompt, `"id":"j"`)
	assert.NotContains(t, gen.reqs[0].Prompt, `"id":"k"`)
}

func TestRegulationSearchOmitsDocuments(t *testing.T) {
	gen := &scriptedGen{replies: []string{"Art. 4"}}
	a, _, _ := newTestAdvisor(gen)
	regs := []models.Regulation{{Title: "Técnico 2026", FileData: "SECRETBASE64"}}
	assert.Equal(t, "Art. 4", a.RegulationSearch(context.Background(), "peso mínimo", regs))
	assert.Contains(t, gen.reqs[0].Prompt, "Técnico 2026")
	assert.NotContains(t, gen.reqs[0].Prompt, "SECRETBASE64")
}

func TestExtractLicense(t *testing.T) {
	gen := &scriptedGen{replies: []string{"```json\n{\"name\":\"JUAN ACOSTA\",\"medicalLicense\":\"1001\",\"sportsLicense\":\"D-55\",\"number\":7}\n```"}}
	a, _, _ := newTestAdvisor(gen)

	lic, err := a.ExtractLicense(context.Background(), []byte{0xff}, "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, lic)
	assert.Equal(t, LicenseData{Name: "JUAN ACOSTA", MedicalLicense: "1001", SportsLicense: "D-55", Number: "7"}, *lic)
	assert.True(t, gen.reqs[0].JSON)
	assert.Equal(t, "image/jpeg", gen.reqs[0].ImageMIME)
}

func TestExtractLicenseUnparseable(t *testing.T) {
	gen := &scriptedGen{replies: []string{"no pude leer la imagen"}}
	a, _, _ := newTestAdvisor(gen)
	lic, err := a.ExtractLicense(context.Background(), []byte{0xff}, "image/jpeg")
	require.NoError(t, err)
	assert.Nil(t, lic)
}

func TestExtractLicensePermanentFailure(t *testing.T) {
	bad := errors.New("400 bad image")
	gen := &scriptedGen{errs: []error{bad}}
	a, _, _ := newTestAdvisor(gen)
	_, err := a.ExtractLicense(context.Background(), []byte{0xff}, "image/jpeg")
	require.ErrorIs(t, err, bad)
}

func TestParseRanking(t *testing.T) {
	gen := &scriptedGen{replies: []string{`[{"name":"JUAN","number":7,"category":"Menores","points":"42.5"},{"name":"ANA","number":"12","category":"Clase 1","points":30}]`}}
	a, _, _ := newTestAdvisor(gen)

	rows, err := a.ParseRanking(context.Background(), "JUAN 7 Menores 42.5")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "7", rows[0].Number)
	assert.InDelta(t, 42.5, rows[0].Points, 0.001)
	assert.Equal(t, "Clase 1", rows[1].Category)
	assert.InDelta(t, 30, rows[1].Points, 0.001)
}

func TestParseRankingGarbage(t *testing.T) {
	gen := &scriptedGen{replies: []string{"{not json"}}
	a, _, _ := newTestAdvisor(gen)
	rows, err := a.ParseRanking(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
