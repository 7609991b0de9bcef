package tgbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/models"
	"kdo-portal/internal/report"
	"kdo-portal/internal/server"
)

const (
	newsLimit    = 5
	penaltyLimit = 10
	liveLimit    = 5
	ballotLimit  = 20
)

// Reports an admin can request a signed link for from the chat.
var exportKinds = []report.Kind{report.KindEntries, report.KindPadron, report.KindStandings}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏠 Menú", "u:menu"))
}

func (a *App) showStart(ctx context.Context, tgID int64) error {
	settings := a.Repo.GetSettings(ctx)
	text := "🏁 KDO - Kart Disciplina Oficial\n\n📢 " + settings.PaddockTicker
	if settings.WeatherInfo != "" {
		text += "\n🌤 " + settings.WeatherInfo
	}
	if settings.MaintenanceMode {
		text += "\n\n⚠️ Portal en mantenimiento."
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Inscribirme", "u:register"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Pilotos", "u:roster"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Calendario", "u:calendar"),
			tgbotapi.NewInlineKeyboardButtonData("📰 Noticias", "u:news"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Sanciones", "u:penalties"),
			tgbotapi.NewInlineKeyboardButtonData("⏱ En vivo", "u:live"),
		),
	}
	if settings.ActiveVoting {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Votar piloto del día", "u:vote"),
		))
	}
	if a.isAdmin(tgID) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛠 Dirección de carrera", "a:menu"),
		))
	}
	return a.sendMenu(tgID, text, rows...)
}

// showCategoryPicker lists the classes as buttons. Callback data carries the
// class index so long names stay within Telegram's 64-byte limit.
func (a *App) showCategoryPicker(ctx context.Context, tgID int64, prefix, prompt string) error {
	categories := a.Repo.GetCategories(ctx)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)/2+2)
	for i := 0; i < len(categories); i += 2 {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(categories[i], prefix+strconv.Itoa(i)),
		)
		if i+1 < len(categories) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(categories[i+1], prefix+strconv.Itoa(i+1)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return a.sendMenu(tgID, prompt, rows...)
}

func (a *App) categoryAt(ctx context.Context, raw string) (string, bool) {
	categories := a.Repo.GetCategories(ctx)
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(categories) {
		return "", false
	}
	return categories[i], true
}

func (a *App) showRoster(ctx context.Context, tgID int64, raw string) error {
	category, ok := a.categoryAt(ctx, raw)
	if !ok {
		return a.SendText(tgID, "Categoría inválida. /start")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👥 %s\n", category)
	n := 0
	for _, p := range a.Repo.GetPilots(ctx) {
		if p.Category != category || !p.Active() {
			continue
		}
		fmt.Fprintf(&b, "\n#%s %s (%s)", p.Number, p.Name, p.Status)
		n++
	}
	if n == 0 {
		return a.sendMenu(tgID, "Sin pilotos inscriptos en "+category+".", backRow())
	}
	return a.sendMenu(tgID, b.String(), backRow())
}

func (a *App) showCalendar(ctx context.Context, tgID int64) error {
	champs := a.Repo.GetChampionships(ctx)
	var b strings.Builder
	for _, c := range champs {
		if len(c.Events) == 0 {
			continue
		}
		fmt.Fprintf(&b, "📅 %s\n", c.Name)
		for _, ev := range c.Events {
			fmt.Fprintf(&b, "\nFecha %d - %s\n   %s · %s · %s\n", ev.Round, ev.Name, ev.Date, ev.Track, ev.Status)
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return a.sendMenu(tgID, "El calendario todavía no fue publicado.", backRow())
	}
	return a.sendMenu(tgID, strings.TrimSpace(b.String()), backRow())
}

func (a *App) showNews(ctx context.Context, tgID int64) error {
	news := a.Repo.GetPressReleases(ctx)
	if len(news) == 0 {
		return a.sendMenu(tgID, "No hay comunicados publicados.", backRow())
	}
	if len(news) > newsLimit {
		news = news[:newsLimit]
	}
	parts := make([]string, 0, len(news))
	for _, n := range news {
		parts = append(parts, fmt.Sprintf("📰 [%s] %s\n%s\n%s", n.Category, n.Date, n.Title, n.Content))
	}
	return a.sendMenu(tgID, strings.Join(parts, "\n\n"), backRow())
}

func (a *App) showPenalties(ctx context.Context, tgID int64) error {
	penalties := a.Repo.GetPenalties(ctx)
	if len(penalties) == 0 {
		return a.sendMenu(tgID, "Sin sanciones registradas.", backRow())
	}
	if len(penalties) > penaltyLimit {
		penalties = penalties[:penaltyLimit]
	}
	var b strings.Builder
	b.WriteString("⚖️ Sanciones")
	for _, p := range penalties {
		fmt.Fprintf(&b, "\n\n%s · #%s %s (%s)\n%s: %s", p.Date, p.Number, p.PilotName, p.Category, p.Type, p.Reason)
	}
	return a.sendMenu(tgID, b.String(), backRow())
}

func (a *App) showLive(ctx context.Context, tgID int64) error {
	if a.Live == nil {
		return a.sendMenu(tgID, "Cronometraje no disponible.", backRow())
	}
	board := a.Live.Latest(ctx)
	var b strings.Builder
	fmt.Fprintf(&b, "⏱ En vivo · Bandera %s", board.Flag)
	rows := board.Rows
	if len(rows) > liveLimit {
		rows = rows[:liveLimit]
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%d. #%s %s  %s  (%d v.)", r.Pos, r.No, r.Name, r.BestLap, r.Laps)
	}
	return a.sendMenu(tgID, b.String(),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Actualizar", "u:live")),
		backRow(),
	)
}

func (a *App) showVoteBallot(ctx context.Context, tgID int64) error {
	if !a.Repo.GetSettings(ctx).ActiveVoting {
		return a.sendMenu(tgID, "La votación está cerrada.", backRow())
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, p := range a.Repo.GetPilots(ctx) {
		if p.Status != models.StatusConfirmed {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("#%s %s", p.Number, p.Name), "u:vote:"+p.ID),
		))
		if len(rows) == ballotLimit {
			break
		}
	}
	if len(rows) == 0 {
		return a.sendMenu(tgID, "No hay pilotos confirmados para votar.", backRow())
	}
	rows = append(rows, backRow())
	return a.sendMenu(tgID, "⭐ Elegí al piloto del día:", rows...)
}

func (a *App) castVote(ctx context.Context, tgID int64, pilotID string) error {
	if !a.Repo.GetSettings(ctx).ActiveVoting {
		return a.SendText(tgID, "La votación está cerrada.")
	}
	var pilot *models.Pilot
	for _, p := range a.Repo.GetPilots(ctx) {
		if p.ID == pilotID {
			pilot = &p
			break
		}
	}
	if pilot == nil {
		return a.SendText(tgID, "Piloto no encontrado.")
	}
	n, err := a.Repo.CastVote(ctx, pilotID)
	if err != nil {
		return err
	}
	if a.Metrics != nil {
		a.Metrics.VoteCast()
	}
	return a.sendMenu(tgID, fmt.Sprintf("✅ Voto registrado para %s. Total: %d", pilot.Name, n), backRow())
}

// ---------- Admin ----------

func openLabel(open bool) string {
	if open {
		return "abiertas"
	}
	return "cerradas"
}

func (a *App) showAdminMenu(ctx context.Context, tgID int64) error {
	settings := a.Repo.GetSettings(ctx)
	text := fmt.Sprintf("🛠 Dirección de carrera\n\nInscripciones: %s\nVotación: %s",
		openLabel(settings.RegistrationsOpen), openLabel(settings.ActiveVoting))

	exports := tgbotapi.NewInlineKeyboardRow()
	for _, k := range exportKinds {
		exports = append(exports, tgbotapi.NewInlineKeyboardButtonData("📤 "+string(k), "a:export:"+string(k)))
	}
	return a.sendMenu(tgID, text,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔓/🔒 Inscripciones", "a:toggle_reg"),
			tgbotapi.NewInlineKeyboardButtonData("⭐ Votación", "a:toggle_vote"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Nueva fecha", "a:reset"),
			tgbotapi.NewInlineKeyboardButtonData("📢 Ticker", "a:ticker"),
		),
		exports,
		backRow(),
	)
}

func (a *App) toggleRegistrations(ctx context.Context, from *tgbotapi.User) error {
	open := !a.Repo.GetSettings(ctx).RegistrationsOpen
	if _, err := a.Backoffice.UpdateSettings(ctx, actor(from), backoffice.SettingsPatch{RegistrationsOpen: &open}); err != nil {
		return err
	}
	return a.SendText(from.ID, "✅ Inscripciones "+openLabel(open)+".")
}

func (a *App) toggleVoting(ctx context.Context, from *tgbotapi.User) error {
	open := !a.Repo.GetSettings(ctx).ActiveVoting
	if _, err := a.Backoffice.UpdateSettings(ctx, actor(from), backoffice.SettingsPatch{ActiveVoting: &open}); err != nil {
		return err
	}
	if open {
		return a.SendText(from.ID, "✅ Votación abierta.")
	}
	return a.SendText(from.ID, "✅ Votación cerrada.")
}

func (a *App) sendExportLink(tgID int64, raw string) error {
	kind, err := report.ParseKind(raw)
	if err != nil {
		return a.SendText(tgID, "Reporte desconocido.")
	}
	base := a.cfg.BasePublicURL
	if base == "" {
		base = "http://localhost" + a.cfg.HTTPAddr
	}
	return a.SendText(tgID, "📤 CSV (enlace): "+server.ExportURL(base, a.cfg.ExportSecret, kind))
}
