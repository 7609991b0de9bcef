// Package tgbot is the Telegram front of the portal: paddock ticker, roster,
// calendar, news, penalties, fan vote and the self-service registration
// flow, plus a small race-control menu for the configured admin chats.
package tgbot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/config"
	"kdo-portal/internal/metrics"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/timing"
)

// Sender is the part of the Bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Deps struct {
	Repo         *repository.Repository
	Registration *registration.Service
	Backoffice   *backoffice.Service
	Live         *timing.Live
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

type App struct {
	cfg     config.Config
	bot     Sender
	updates func() tgbotapi.UpdatesChannel
	Deps

	// per-chat state machine for the registration and admin flows
	state map[int64]userState
}

type userState struct {
	Flow string
	Step int
	Data map[string]string
}

const (
	flowRegister = "reg"
	flowTicker   = "admin_ticker"
)

func New(cfg config.Config, d Deps) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	a := NewWithSender(cfg, b, d)
	a.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return b.GetUpdatesChan(u)
	}
	return a, nil
}

// NewWithSender builds an App that talks through s. Run needs an update
// source, so apps built this way are driven through Handle.
func NewWithSender(cfg config.Config, s Sender, d Deps) *App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	d.Logger = d.Logger.Named("tgbot")
	return &App{
		cfg:   cfg,
		bot:   s,
		Deps:  d,
		state: map[int64]userState{},
	}
}

func (a *App) Run(ctx context.Context) error {
	updates := a.updates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			a.Handle(ctx, upd)
		}
	}
}

// Handle processes one update. Errors are logged, not returned, so one bad
// chat never stops the loop.
func (a *App) Handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.From != nil:
		if err := a.handleMessage(ctx, upd.Message); err != nil {
			a.Logger.Warn("handle message", zap.Int64("chat", upd.Message.From.ID), zap.Error(err))
		}
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
			a.Logger.Warn("handle callback", zap.Int64("chat", upd.CallbackQuery.From.ID), zap.Error(err))
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	_, err := a.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (a *App) sendMenu(chatID int64, text string, rows ...[]tgbotapi.InlineKeyboardButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) isAdmin(tgID int64) bool {
	return a.cfg.AdminTGIDs[tgID]
}

// actor attributes bot-side admin actions in the audit log.
func actor(from *tgbotapi.User) *models.AdminUser {
	name := from.UserName
	if name == "" {
		name = from.FirstName
	}
	return &models.AdminUser{Username: "tg:" + name, Name: name, Role: models.RoleSteward}
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	tgID := m.From.ID
	txt := strings.TrimSpace(m.Text)

	if strings.HasPrefix(txt, "/start") {
		a.state[tgID] = userState{}
		return a.showStart(ctx, tgID)
	}
	if strings.HasPrefix(txt, "/cancel") {
		a.state[tgID] = userState{}
		return a.SendText(tgID, "Operación cancelada. /start")
	}
	if strings.HasPrefix(txt, "/admin") {
		if !a.isAdmin(tgID) {
			return a.SendText(tgID, "Acceso denegado.")
		}
		a.state[tgID] = userState{}
		return a.showAdminMenu(ctx, tgID)
	}

	st := a.state[tgID]
	if st.Flow != "" {
		return a.handleFlowInput(ctx, m.From, txt, st)
	}
	return a.showStart(ctx, tgID)
}

func (a *App) handleFlowInput(ctx context.Context, from *tgbotapi.User, txt string, st userState) error {
	switch st.Flow {
	case flowRegister:
		return a.handleRegistrationFlow(ctx, from.ID, txt, st)
	case flowTicker:
		return a.handleTickerFlow(ctx, from, txt)
	default:
		a.state[from.ID] = userState{}
		return a.SendText(from.ID, "Estado reiniciado. /start")
	}
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	tgID := q.From.ID
	data := q.Data

	_, _ = a.bot.Request(tgbotapi.NewCallback(q.ID, ""))

	if strings.HasPrefix(data, "u:") {
		return a.handleUserCallback(ctx, tgID, data)
	}
	if strings.HasPrefix(data, "a:") {
		if !a.isAdmin(tgID) {
			return a.SendText(tgID, "Acceso denegado.")
		}
		return a.handleAdminCallback(ctx, q.From, data)
	}
	return nil
}

func (a *App) handleUserCallback(ctx context.Context, tgID int64, data string) error {
	switch data {
	case "u:menu":
		return a.showStart(ctx, tgID)
	case "u:roster":
		return a.showCategoryPicker(ctx, tgID, "u:roster_cat:", "Elegí una categoría:")
	case "u:calendar":
		return a.showCalendar(ctx, tgID)
	case "u:news":
		return a.showNews(ctx, tgID)
	case "u:penalties":
		return a.showPenalties(ctx, tgID)
	case "u:live":
		return a.showLive(ctx, tgID)
	case "u:vote":
		return a.showVoteBallot(ctx, tgID)
	case "u:register":
		return a.startRegistration(ctx, tgID)
	}

	if idx, ok := strings.CutPrefix(data, "u:roster_cat:"); ok {
		return a.showRoster(ctx, tgID, idx)
	}
	if idx, ok := strings.CutPrefix(data, "u:reg_cat:"); ok {
		return a.pickRegistrationCategory(ctx, tgID, idx)
	}
	if id, ok := strings.CutPrefix(data, "u:vote:"); ok {
		return a.castVote(ctx, tgID, id)
	}
	return nil
}

func (a *App) handleAdminCallback(ctx context.Context, from *tgbotapi.User, data string) error {
	tgID := from.ID
	switch data {
	case "a:menu":
		return a.showAdminMenu(ctx, tgID)
	case "a:toggle_reg":
		return a.toggleRegistrations(ctx, from)
	case "a:toggle_vote":
		return a.toggleVoting(ctx, from)
	case "a:reset":
		return a.sendMenu(tgID, "¿Reiniciar todas las inscripciones a Pendiente?",
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Sí, reiniciar", "a:reset_confirm"),
				tgbotapi.NewInlineKeyboardButtonData("✖️ Cancelar", "a:menu"),
			))
	case "a:reset_confirm":
		n, err := a.Registration.ResetForNewRace(ctx, actor(from))
		if err != nil {
			return err
		}
		return a.SendText(tgID, fmt.Sprintf("✅ Inscripciones reiniciadas: %d pilotos en Pendiente.", n))
	case "a:ticker":
		a.state[tgID] = userState{Flow: flowTicker, Step: 1}
		return a.SendText(tgID, "Escribí el nuevo texto del ticker del paddock:")
	}

	if kind, ok := strings.CutPrefix(data, "a:export:"); ok {
		return a.sendExportLink(tgID, kind)
	}
	return nil
}
