package tgbot

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/models"
	"kdo-portal/internal/registration"
	"kdo-portal/internal/util"
)

// Registration steps after the category is picked.
const (
	stepNumber = iota + 1
	stepConfirm
	stepName
	stepRanking
	stepMedical
	stepSports
	stepTransponder
)

func (a *App) startRegistration(ctx context.Context, tgID int64) error {
	settings := a.Repo.GetSettings(ctx)
	if settings.MaintenanceMode {
		return a.SendText(tgID, "Portal en mantenimiento. Probá más tarde.")
	}
	if !settings.RegistrationsOpen {
		return a.SendText(tgID, "Las inscripciones están cerradas.")
	}
	a.state[tgID] = userState{Flow: flowRegister, Data: map[string]string{}}
	return a.showCategoryPicker(ctx, tgID, "u:reg_cat:", "📝 Inscripción. Elegí tu categoría:")
}

func (a *App) pickRegistrationCategory(ctx context.Context, tgID int64, raw string) error {
	st := a.state[tgID]
	if st.Flow != flowRegister {
		return a.SendText(tgID, "Tocá /start para empezar.")
	}
	category, ok := a.categoryAt(ctx, raw)
	if !ok {
		return a.SendText(tgID, "Categoría inválida.")
	}
	st.Data["category"] = category
	st.Step = stepNumber
	a.state[tgID] = st
	return a.SendText(tgID, "Categoría "+category+". Ingresá tu número de kart:")
}

func (a *App) handleRegistrationFlow(ctx context.Context, tgID int64, txt string, st userState) error {
	if st.Data == nil || st.Data["category"] == "" {
		a.state[tgID] = userState{}
		return a.SendText(tgID, "Elegí la categoría desde el menú. /start")
	}

	switch st.Step {
	case stepNumber:
		if !util.IsDigits(txt) {
			return a.SendText(tgID, "El dorsal debe ser numérico. Ingresalo de nuevo:")
		}
		st.Data["number"] = txt
		if prev, found := a.Registration.LookupNumber(ctx, st.Data["category"], txt); found {
			st.Data["name"] = prev.Name
			st.Data["ranking"] = strconv.Itoa(prev.Ranking)
			st.Data["medicalLicense"] = prev.MedicalLicense
			st.Data["sportsLicense"] = prev.SportsLicense
			st.Data["transponderId"] = prev.TransponderID
			st.Step = stepConfirm
			a.state[tgID] = st
			return a.SendText(tgID, "El #"+txt+" está registrado a "+prev.Name+". ¿Sos vos? (si/no)")
		}
		st.Step = stepName
		a.state[tgID] = st
		return a.SendText(tgID, "Nombre y apellido:")
	case stepConfirm:
		if util.NormalizeBool(txt) {
			return a.submitRegistration(ctx, tgID, st)
		}
		for _, k := range []string{"name", "ranking", "medicalLicense", "sportsLicense", "transponderId"} {
			delete(st.Data, k)
		}
		st.Step = stepName
		a.state[tgID] = st
		return a.SendText(tgID, "Nombre y apellido:")
	case stepName:
		st.Data["name"] = txt
		st.Step = stepRanking
		a.state[tgID] = st
		return a.SendText(tgID, "Ranking actual (número, 99 si no tenés):")
	case stepRanking:
		st.Data["ranking"] = txt
		st.Step = stepMedical
		a.state[tgID] = st
		return a.SendText(tgID, "Número de licencia médica:")
	case stepMedical:
		st.Data["medicalLicense"] = txt
		st.Step = stepSports
		a.state[tgID] = st
		return a.SendText(tgID, "Número de licencia deportiva:")
	case stepSports:
		st.Data["sportsLicense"] = txt
		st.Step = stepTransponder
		a.state[tgID] = st
		return a.SendText(tgID, "Transponder (o \"-\" si no tenés):")
	case stepTransponder:
		if txt != "-" {
			st.Data["transponderId"] = txt
		}
		return a.submitRegistration(ctx, tgID, st)
	default:
		a.state[tgID] = userState{}
		return a.SendText(tgID, "Inscripción reiniciada. /start")
	}
}

func (a *App) submitRegistration(ctx context.Context, tgID int64, st userState) error {
	a.state[tgID] = userState{}
	res, err := a.Registration.Register(ctx, registration.Form{
		Name:           st.Data["name"],
		Number:         st.Data["number"],
		Category:       st.Data["category"],
		Ranking:        st.Data["ranking"],
		MedicalLicense: st.Data["medicalLicense"],
		SportsLicense:  st.Data["sportsLicense"],
		TransponderID:  st.Data["transponderId"],
	})

	var fields models.FieldErrors
	switch {
	case errors.As(err, &fields):
		return a.SendText(tgID, "❌ No pudimos inscribirte:\n"+fieldLines(fields)+"\n\nVolvé a intentarlo: /start")
	case errors.Is(err, models.ErrRegistrationsClosed):
		return a.SendText(tgID, "Las inscripciones están cerradas.")
	case err != nil:
		return err
	}

	text := "✅ Inscripción recibida: #" + res.Pilot.Number + " " + res.Pilot.Name + " (" + res.Pilot.Category + ").\nEstado: " + string(res.Pilot.Status)
	if res.Outcome == registration.OutcomeReRegistered {
		text = "✅ Re-inscripción confirmada: #" + res.Pilot.Number + " " + res.Pilot.Name + ".\nEstado: " + string(res.Pilot.Status)
	}
	return a.sendMenu(tgID, text, backRow())
}

func fieldLines(f models.FieldErrors) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, "• "+f[k])
	}
	return strings.Join(lines, "\n")
}

func (a *App) handleTickerFlow(ctx context.Context, from *tgbotapi.User, txt string) error {
	if txt == "" {
		return a.SendText(from.ID, "El texto está vacío. Escribilo de nuevo:")
	}
	if _, err := a.Backoffice.UpdateSettings(ctx, actor(from), backoffice.SettingsPatch{PaddockTicker: &txt}); err != nil {
		return err
	}
	a.state[from.ID] = userState{}
	return a.SendText(from.ID, "✅ Ticker actualizado.")
}
