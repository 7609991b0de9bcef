package tgbot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/config"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/storage"
)

const (
	fanID   int64 = 100
	adminID int64 = 200
)

type sent struct {
	chatID  int64
	text    string
	buttons []string
}

type fakeSender struct {
	msgs     []sent
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	s := sent{chatID: msg.ChatID, text: msg.Text}
	if kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
		for _, row := range kb.InlineKeyboard {
			for _, b := range row {
				if b.CallbackData != nil {
					s.buttons = append(s.buttons, *b.CallbackData)
				}
			}
		}
	}
	f.msgs = append(f.msgs, s)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) sent {
	t.Helper()
	require.NotEmpty(t, f.msgs)
	return f.msgs[len(f.msgs)-1]
}

func newApp(t *testing.T) (*App, *fakeSender, *repository.Repository) {
	t.Helper()
	log := zap.NewNop()
	clock := func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	repo := repository.New(storage.NewMemory(), log)
	cfg := config.Config{
		HTTPAddr:     ":8080",
		ExportSecret: "s3cret",
		AdminTGIDs:   map[int64]bool{adminID: true},
	}
	fake := &fakeSender{}
	app := NewWithSender(cfg, fake, Deps{
		Repo:         repo,
		Registration: registration.New(repo, log, registration.WithClock(clock)),
		Backoffice:   backoffice.New(repo, log, backoffice.WithClock(clock)),
		Logger:       log,
	})
	return app, fake, repo
}

func text(from int64, txt string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: from, UserName: "user"},
		Chat: &tgbotapi.Chat{ID: from},
		Text: txt,
	}}
}

func press(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: from, UserName: "comisario"},
		Data: data,
	}}
}

func TestStartShowsTickerAndMenu(t *testing.T) {
	app, fake, _ := newApp(t)
	app.Handle(context.Background(), text(fanID, "/start"))

	msg := fake.last(t)
	assert.Equal(t, fanID, msg.chatID)
	assert.Contains(t, msg.text, "BIENVENIDOS A LA TEMPORADA 2026")
	assert.Contains(t, msg.buttons, "u:register")
	assert.Contains(t, msg.buttons, "u:vote")
	assert.NotContains(t, msg.buttons, "a:menu")

	app.Handle(context.Background(), text(adminID, "/start"))
	assert.Contains(t, fake.last(t).buttons, "a:menu")
}

func TestRegistrationFlowCreatesPilot(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)

	app.Handle(ctx, press(fanID, "u:register"))
	assert.Equal(t, 1, fake.requests)
	assert.Contains(t, fake.last(t).buttons, "u:reg_cat:5")

	app.Handle(ctx, press(fanID, "u:reg_cat:5"))
	assert.Contains(t, fake.last(t).text, "Clase 1")

	for _, in := range []string{"33", "Sofia Lopez", "7", "ML-333", "SL-333", "-"} {
		app.Handle(ctx, text(fanID, in))
	}
	assert.Contains(t, fake.last(t).text, "Inscripción recibida: #33 SOFIA LOPEZ (Clase 1)")

	pilots := repo.GetPilots(ctx)
	require.Len(t, pilots, 5)
	p := pilots[4]
	assert.Equal(t, "Clase 1", p.Category)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Equal(t, "TX-33", p.TransponderID)
	assert.Empty(t, app.state[fanID].Flow)
}

func TestRegistrationFlowReRegistersKnownNumber(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)

	app.Handle(ctx, press(fanID, "u:register"))
	app.Handle(ctx, press(fanID, "u:reg_cat:0"))
	app.Handle(ctx, text(fanID, "12"))
	assert.Contains(t, fake.last(t).text, "MARTIN GARCIA")

	app.Handle(ctx, text(fanID, "si"))
	assert.Contains(t, fake.last(t).text, "Re-inscripción confirmada")
	require.Len(t, repo.GetPilots(ctx), 4)
	assert.Equal(t, models.StatusPending, repo.GetPilots(ctx)[3].Status)
}

func TestRegistrationFlowEchoesFieldErrors(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)

	app.Handle(ctx, press(fanID, "u:register"))
	app.Handle(ctx, press(fanID, "u:reg_cat:0"))
	app.Handle(ctx, text(fanID, "abc"))
	assert.Contains(t, fake.last(t).text, "numérico")

	app.Handle(ctx, text(fanID, "12"))
	app.Handle(ctx, text(fanID, "no"))
	for _, in := range []string{"Otro Piloto", "3", "ML-900", "SL-900", "-"} {
		app.Handle(ctx, text(fanID, in))
	}
	msg := fake.last(t)
	assert.Contains(t, msg.text, "No pudimos inscribirte")
	assert.Contains(t, msg.text, "El número 12 ya existe en KDO Power")
	assert.Len(t, repo.GetPilots(ctx), 4)
}

func TestRegistrationClosed(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)
	s := repo.GetSettings(ctx)
	s.RegistrationsOpen = false
	require.NoError(t, repo.SaveSettings(ctx, s))

	app.Handle(ctx, press(fanID, "u:register"))
	assert.Equal(t, "Las inscripciones están cerradas.", fake.last(t).text)
	assert.Empty(t, app.state[fanID].Flow)
}

func TestVoteFromBallot(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)

	app.Handle(ctx, press(fanID, "u:vote"))
	assert.Contains(t, fake.last(t).buttons, "u:vote:3")

	app.Handle(ctx, press(fanID, "u:vote:3"))
	assert.Contains(t, fake.last(t).text, "FRANCISCO PEROYE")
	assert.Equal(t, 1, repo.GetVotes(ctx)["3"])

	app.Handle(ctx, press(fanID, "u:vote:ghost"))
	assert.Equal(t, "Piloto no encontrado.", fake.last(t).text)
}

func TestRosterByCategory(t *testing.T) {
	app, fake, _ := newApp(t)
	app.Handle(context.Background(), press(fanID, "u:roster_cat:1"))
	msg := fake.last(t)
	assert.Contains(t, msg.text, "Supermaster")
	assert.Contains(t, msg.text, "#8 FRANCISCO PEROYE")
	assert.NotContains(t, msg.text, "JUAN ACOSTA")

	app.Handle(context.Background(), press(fanID, "u:roster_cat:99"))
	assert.Contains(t, fake.last(t).text, "Categoría inválida")
}

func TestAdminCallbacksNeedAdmin(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)

	app.Handle(ctx, press(fanID, "a:toggle_reg"))
	assert.Equal(t, "Acceso denegado.", fake.last(t).text)
	assert.True(t, repo.GetSettings(ctx).RegistrationsOpen)

	app.Handle(ctx, text(fanID, "/admin"))
	assert.Equal(t, "Acceso denegado.", fake.last(t).text)
}

func TestAdminToggleResetAndExport(t *testing.T) {
	ctx := context.Background()
	app, fake, repo := newApp(t)

	app.Handle(ctx, press(adminID, "a:toggle_reg"))
	assert.False(t, repo.GetSettings(ctx).RegistrationsOpen)
	assert.Equal(t, "tg:comisario", repo.GetAuditLogs(ctx)[0].Admin)

	app.Handle(ctx, press(adminID, "a:reset_confirm"))
	assert.Contains(t, fake.last(t).text, "4 pilotos")
	for _, p := range repo.GetPilots(ctx) {
		assert.Equal(t, models.StatusPending, p.Status)
	}

	app.Handle(ctx, press(adminID, "a:export:inscriptos"))
	link := fake.last(t).text
	assert.True(t, strings.Contains(link, "http://localhost:8080/export/inscriptos.csv?token="), link)
}

func TestAdminTickerFlow(t *testing.T) {
	ctx := context.Background()
	app, _, repo := newApp(t)

	app.Handle(ctx, press(adminID, "a:ticker"))
	app.Handle(ctx, text(adminID, "PISTA HABILITADA 14HS"))
	assert.Equal(t, "PISTA HABILITADA 14HS", repo.GetSettings(ctx).PaddockTicker)
	assert.Empty(t, app.state[adminID].Flow)
}
