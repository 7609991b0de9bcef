package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
)

const chatInstruction = "Eres el Oficial de Enlace Institucional de KDO. Ayudas con reglamentos, historia del campeonato y logística de circuitos. No hablas de ingeniería ni telemetría. Tu tono es solemne pero cercano."

// Canned replies shown instead of model output.
const (
	FallbackChat        = "Modo Offline: Función IA no disponible sin conexión."
	FallbackNews        = "KDO SYSTEM - MODO OFFLINE ACTIVADO"
	FallbackBio         = "Perfil no disponible en modo offline."
	FallbackTips        = "Consejos de IA no disponibles sin conexión."
	FallbackAudit       = "Análisis forense requiere conexión al servidor central."
	FallbackStandings   = "Análisis estratégico no disponible offline."
	FallbackRegulations = "Búsqueda inteligente desactivada en modo offline."
	FallbackRaceOffline = "Resultados procesados sin resumen IA (Modo Offline)."
	FallbackRaceError   = "Resultados procesados automáticamente."
)

// Call outcomes reported to the observer.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeOffline  = "offline"
)

// LicenseData is what the model reads off a photographed license card.
type LicenseData struct {
	Name           string `json:"name"`
	MedicalLicense string `json:"medicalLicense"`
	SportsLicense  string `json:"sportsLicense"`
	Number         string `json:"number"`
}

// Advisor wraps a Generator with the portal's prompts. Text methods never
// fail: an offline gateway or exhausted retries yield the canned reply.
type Advisor struct {
	gen     Generator
	retry   *Retrier
	offline bool
	logger  *zap.Logger
	observe func(outcome string)
}

type Option func(*Advisor)

func WithOffline(offline bool) Option { return func(a *Advisor) { a.offline = offline } }

func WithRetrier(r *Retrier) Option { return func(a *Advisor) { a.retry = r } }

func WithObserver(fn func(outcome string)) Option { return func(a *Advisor) { a.observe = fn } }

// NewAdvisor accepts a nil generator; the advisor then behaves as offline.
func NewAdvisor(gen Generator, logger *zap.Logger, opts ...Option) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Advisor{gen: gen, logger: logger}
	for _, o := range opts {
		o(a)
	}
	if a.retry == nil {
		a.retry = NewRetrier(logger)
	}
	return a
}

func (a *Advisor) Online() bool { return !a.offline && a.gen != nil }

func (a *Advisor) report(outcome string) {
	if a.observe != nil {
		a.observe(outcome)
	}
}

func (a *Advisor) call(ctx context.Context, req Request) (string, error) {
	if !a.Online() {
		a.report(OutcomeOffline)
		return "", models.ErrOffline
	}
	text, err := a.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return a.gen.Generate(ctx, req)
	})
	if err != nil {
		a.logger.Warn("text generation failed", zap.Error(err))
		a.report(OutcomeFallback)
		return "", err
	}
	a.report(OutcomeOK)
	return text, nil
}

func (a *Advisor) text(ctx context.Context, req Request, offlineMsg, errMsg string) string {
	text, err := a.call(ctx, req)
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		return text
	case errors.Is(err, models.ErrOffline):
		return offlineMsg
	default:
		return errMsg
	}
}

func (a *Advisor) Chat(ctx context.Context, history []Turn, message string) string {
	return a.text(ctx, Request{Prompt: message, System: chatInstruction, History: history},
		FallbackChat, FallbackChat)
}

func (a *Advisor) NewsDigest(ctx context.Context) string {
	prompt := "Genera un titular emocionante para un ticker de noticias de Karting sobre el inicio de la temporada 2026 de KDO. Máximo 15 palabras."
	return a.text(ctx, Request{Prompt: prompt}, FallbackNews, FallbackNews)
}

func (a *Advisor) PilotBio(ctx context.Context, p models.Pilot) string {
	prompt := fmt.Sprintf("Redacta un perfil heroico del piloto %s (#%s) para el sitio web. Menciona sus victorias y sus puntos de conducta %d/10 como prueba de deportividad. Máximo 50 palabras.",
		p.Name, p.Number, p.ConductPoints)
	return a.text(ctx, Request{Prompt: prompt}, FallbackBio, FallbackBio)
}

func (a *Advisor) CircuitTips(ctx context.Context, circuit, surface string) string {
	prompt := fmt.Sprintf("Como instructor experto de KDO, dame un consejo breve de trayectoria para %s sobre tierra en estado %s. Máximo 30 palabras.",
		circuit, surface)
	return a.text(ctx, Request{Prompt: prompt}, FallbackTips, FallbackTips)
}

// AnalyzeAuditLogs summarizes the ten most recent audit entries.
func (a *Advisor) AnalyzeAuditLogs(ctx context.Context, logs []models.AuditLog) string {
	if len(logs) > 10 {
		logs = logs[:10]
	}
	raw, _ := json.Marshal(logs)
	prompt := fmt.Sprintf("Analiza estos registros de auditoría administrativa: %s. Resume las 3 acciones más importantes y confirma si la integridad del sistema parece correcta.", raw)
	return a.text(ctx, Request{Prompt: prompt}, FallbackAudit, FallbackAudit)
}

func (a *Advisor) AnalyzeStandings(ctx context.Context, category string, pilots []models.Pilot) string {
	type row struct {
		Name   string  `json:"name"`
		Number string  `json:"number"`
		Points float64 `json:"points"`
		Wins   int     `json:"wins"`
	}
	rows := make([]row, 0, len(pilots))
	for _, p := range pilots {
		rows = append(rows, row{Name: p.Name, Number: p.Number, Points: p.Stats.Points, Wins: p.Stats.Wins})
	}
	raw, _ := json.Marshal(rows)
	prompt := fmt.Sprintf("Analyze the current standings for category %s: %s. Provide a brief strategic insight for the championship. Max 40 words.", category, raw)
	return a.text(ctx, Request{Prompt: prompt}, FallbackStandings, FallbackStandings)
}

// RegulationSearch answers a question from regulation metadata. Embedded
// documents are left out of the prompt.
func (a *Advisor) RegulationSearch(ctx context.Context, query string, regs []models.Regulation) string {
	type doc struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Version     string `json:"version"`
	}
	docs := make([]doc, 0, len(regs))
	for _, r := range regs {
		docs = append(docs, doc{Title: r.Title, Description: r.Description, Category: string(r.Category), Version: r.Version})
	}
	raw, _ := json.Marshal(docs)
	prompt := fmt.Sprintf("Based on these regulations: %s. Answer this query: %s. Max 50 words.", raw, query)
	return a.text(ctx, Request{Prompt: prompt}, FallbackRegulations, FallbackRegulations)
}

func (a *Advisor) RaceSummary(ctx context.Context, category string, rows []models.TimingRow) string {
	raw, _ := json.Marshal(rows)
	prompt := fmt.Sprintf("Generate a very short, professional race summary (max 1 sentence) for category %s based on these results: %s.", category, raw)
	return a.text(ctx, Request{Prompt: prompt}, FallbackRaceOffline, FallbackRaceError)
}

// ExtractLicense reads a license card image. A reply that is not the
// expected JSON object yields (nil, nil); gateway failures are returned.
func (a *Advisor) ExtractLicense(ctx context.Context, image []byte, mime string) (*LicenseData, error) {
	prompt := "Extract the pilot name, medical license number, sports license number, and kart number from this image. Return as JSON with keys: name, medicalLicense, sportsLicense, number."
	text, err := a.call(ctx, Request{Prompt: prompt, Image: image, ImageMIME: mime, JSON: true})
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(stripFence(text)), &fields); err != nil {
		a.logger.Debug("license reply is not JSON", zap.Error(err))
		return nil, nil
	}
	return &LicenseData{
		Name:           asString(fields["name"]),
		MedicalLicense: asString(fields["medicalLicense"]),
		SportsLicense:  asString(fields["sportsLicense"]),
		Number:         asString(fields["number"]),
	}, nil
}

// ParseRanking turns a pasted standings table into rows. Offline gateways
// and unparseable replies yield an empty result.
func (a *Advisor) ParseRanking(ctx context.Context, raw string) ([]registration.RankingRow, error) {
	prompt := fmt.Sprintf("Analiza el siguiente texto que contiene datos de pilotos de karting (nombre, número de kart, categoría, puntos). Extrae la información y devuélvela en formato JSON como un arreglo de objetos con las llaves: name, number, category, points. Texto: \"%s\"", raw)
	text, err := a.call(ctx, Request{Prompt: prompt, JSON: true})
	if errors.Is(err, models.ErrOffline) {
		return []registration.RankingRow{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(stripFence(text)), &items); err != nil {
		a.logger.Debug("ranking reply is not JSON", zap.Error(err))
		return []registration.RankingRow{}, nil
	}
	rows := make([]registration.RankingRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, registration.RankingRow{
			Name:     asString(it["name"]),
			Number:   asString(it["number"]),
			Category: asString(it["category"]),
			Points:   asFloat(it["points"]),
		})
	}
	return rows, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
