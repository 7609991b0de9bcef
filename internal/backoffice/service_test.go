package backoffice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/storage"
	"kdo-portal/internal/util"
)

var director = &models.AdminUser{ID: "admin-1", Username: "admin", Name: "Director General KDO", Role: models.RoleSuperAdmin}

func newService(t *testing.T) (*Service, *repository.Repository) {
	t.Helper()
	repo := repository.New(storage.NewMemory(), zap.NewNop())
	clock := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	return New(repo, zap.NewNop(), WithClock(func() time.Time { return clock })), repo
}

func TestSaveEventDefaultsAndEdit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	_, err := svc.SaveEvent(ctx, director, "c1", EventForm{Name: "Fecha Extra"})
	require.Error(t, err)
	assert.Contains(t, err.(models.FieldErrors), "track")

	ev, err := svc.SaveEvent(ctx, director, "c1", EventForm{Name: "Fecha Extra", Track: "Kartódromo Chivilcoy"})
	require.NoError(t, err)
	assert.Equal(t, 11, ev.Round)
	assert.Equal(t, "15/10/2026", ev.Date)
	assert.Equal(t, models.EventScheduled, ev.Status)

	require.NoError(t, svc.SignBriefing(ctx, director, "c1", ev.ID, "1"))
	require.NoError(t, svc.SignBriefing(ctx, director, "c1", ev.ID, "1"))
	require.NoError(t, svc.SetScrutiny(ctx, director, "c1", ev.ID, "2", true))

	edited, err := svc.SaveEvent(ctx, director, "c1", EventForm{ID: ev.ID, Round: 11, Name: "Fecha Extra Nocturna", Track: "Kartódromo Chivilcoy", Status: "en curso"})
	require.NoError(t, err)
	assert.Equal(t, models.EventRunning, edited.Status)
	assert.Equal(t, []string{"1"}, edited.BriefingSigned, "attendance survives edits")
	assert.Equal(t, map[string]bool{"2": true}, edited.TechnicalScrutiny)

	events := repo.GetChampionships(ctx)[0].Events
	require.Len(t, events, 11)
	assert.Equal(t, "Fecha Extra Nocturna", events[10].Name)

	require.NoError(t, svc.DeleteEvent(ctx, director, "c1", ev.ID))
	assert.Len(t, repo.GetChampionships(ctx)[0].Events, 10)
	require.ErrorIs(t, svc.DeleteEvent(ctx, director, "c1", ev.ID), models.ErrNotFound)
	_, err = svc.SaveEvent(ctx, director, "nope", EventForm{Name: "x", Track: "y"})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestAttendanceRequiresKnownPilot(t *testing.T) {
	svc, _ := newService(t)
	err := svc.SignBriefing(context.Background(), director, "c1", "e4", "ghost")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestPenaltySnapshotsPilot(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	pen, err := svc.AddPenalty(ctx, director, PenaltyForm{PilotID: "4", Type: "recargo 10s", Reason: "Largada anticipada"})
	require.NoError(t, err)
	assert.Equal(t, "MARTIN GARCIA", pen.PilotName)
	assert.Equal(t, "12", pen.Number)
	assert.Equal(t, "KDO Power", pen.Category)
	assert.Equal(t, models.PenaltyTime10s, pen.Type)

	roster := repo.GetPilots(ctx)
	roster[3].Name = "MARTIN GARCIA JR"
	roster[3].Number = "120"
	require.NoError(t, repo.SavePilots(ctx, roster))

	stored := repo.GetPenalties(ctx)
	require.Len(t, stored, 7)
	assert.Equal(t, "MARTIN GARCIA", stored[0].PilotName)
	assert.Equal(t, "12", stored[0].Number)

	_, err = svc.AddPenalty(ctx, director, PenaltyForm{PilotID: "4", Type: "Amonestación", Reason: "x"})
	assert.Contains(t, err.(models.FieldErrors), "type")
	_, err = svc.AddPenalty(ctx, director, PenaltyForm{PilotID: "ghost", Type: "Sanción", Reason: "x"})
	assert.Contains(t, err.(models.FieldErrors), "pilotId")

	require.NoError(t, svc.DeletePenalty(ctx, director, "p1"))
	assert.Len(t, repo.GetPenalties(ctx), 6)
}

func TestSaveRegulation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	_, err := svc.SaveRegulation(ctx, director, RegulationForm{Title: "Reglamento"})
	require.Error(t, err)

	payload := make([]byte, 2*1024*1024)
	for i := range payload {
		payload[i] = 'A'
	}
	reg, err := svc.SaveRegulation(ctx, director, RegulationForm{Title: "Reglamento Técnico 2026", Category: "Técnico", FileData: string(payload)})
	require.NoError(t, err)
	assert.Equal(t, "1.0", reg.Version)
	assert.Equal(t, "2.00 MB", reg.FileSize)

	reg2, err := svc.SaveRegulation(ctx, director, RegulationForm{ID: reg.ID, Title: "Reglamento Técnico 2026", Category: "Anexo", Version: "1.1", FileData: "JVBERi0xLjQ="})
	require.NoError(t, err)
	regs := repo.GetRegulations(ctx)
	require.Len(t, regs, 1)
	assert.Equal(t, reg2, regs[0])
	assert.Equal(t, models.RegulationAnnex, regs[0].Category)

	require.NoError(t, svc.DeleteRegulation(ctx, director, reg.ID))
	assert.Empty(t, repo.GetRegulations(ctx))
}

func TestSavePressReleaseSignedByActor(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	pr, err := svc.SavePressRelease(ctx, director, PressForm{Title: "Nueva fecha", Content: "Se confirma la fecha 11.", Category: "Urgente"})
	require.NoError(t, err)
	assert.Equal(t, "Director General KDO", pr.Author)
	news := repo.GetPressReleases(ctx)
	require.Len(t, news, 2)
	assert.Equal(t, pr.ID, news[0].ID)

	require.NoError(t, svc.DeletePressRelease(ctx, director, "news-1"))
	assert.Len(t, repo.GetPressReleases(ctx), 1)
}

func TestStaffLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	_, err := svc.SaveStaff(ctx, director, StaffForm{Username: "comisario", Role: "Comisario Deportivo"})
	assert.Contains(t, err.(models.FieldErrors), "password")

	u, err := svc.SaveStaff(ctx, director, StaffForm{Username: " Comisario ", Password: "pista-2026", Name: "Luis Comisario", Role: "comisario deportivo"})
	require.NoError(t, err)
	assert.Equal(t, "comisario", u.Username)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, []string{"READ", "WRITE"}, u.Permissions)

	stored := repo.GetAdminUsers(ctx)
	require.Len(t, stored, 2)
	assert.True(t, util.CheckPassword(stored[1].PasswordHash, "pista-2026"))

	_, err = svc.SaveStaff(ctx, director, StaffForm{ID: u.ID, Username: "comisario", Name: "Luis C.", Role: "Secretario"})
	require.NoError(t, err)
	stored = repo.GetAdminUsers(ctx)
	assert.True(t, util.CheckPassword(stored[1].PasswordHash, "pista-2026"), "edit without password keeps it")
	assert.Equal(t, models.RoleSecretary, stored[1].Role)

	_, err = svc.SaveStaff(ctx, director, StaffForm{Username: "admin", Password: "x", Role: "Prensa"})
	assert.Contains(t, err.(models.FieldErrors), "username")

	require.ErrorIs(t, svc.DeleteStaff(ctx, director, repository.ProtectedAdminID), models.ErrProtectedAccount)
	require.NoError(t, svc.DeleteStaff(ctx, director, u.ID))
	assert.Len(t, svc.ListStaff(ctx), 1)
}

func TestSaveHistoryAndChampions(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	legacy, err := svc.SaveHistory(ctx, director, HistoryForm{
		Name: "Campeonato KDO 2025", Year: 2025,
		Champions: []models.Champion{{Category: "KDO Power", Pilot: "juan acosta", Kart: "1"}, {Category: "", Pilot: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Temporada 2025", legacy.Dates)
	assert.Equal(t, "Varios", legacy.Tracks)
	assert.Equal(t, "Finalizada", legacy.Status)
	assert.Len(t, legacy.Champions, 1)

	champ, err := svc.AddChampion(ctx, director, legacy.ID, models.Champion{Category: "Supermaster", Pilot: "francisco peroye", Kart: "8"})
	require.NoError(t, err)
	assert.Len(t, champ.Champions, 2)
	assert.Equal(t, "FRANCISCO PEROYE", champ.Champions[1].Pilot)

	champs := repo.GetChampionships(ctx)
	require.Len(t, champs, 2)
	assert.Equal(t, legacy.ID, champs[0].ID)
}

func TestUpdateSettingsMergesAndLogs(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	on := true
	ip := "10.0.0.5"
	got, err := svc.UpdateSettings(ctx, director, SettingsPatch{MaintenanceMode: &on, OrbitsIP: &ip})
	require.NoError(t, err)
	assert.True(t, got.MaintenanceMode)
	assert.True(t, got.RegistrationsOpen, "untouched fields keep their value")
	assert.Equal(t, got, repo.GetSettings(ctx))

	logs := repo.GetAuditLogs(ctx)
	require.Len(t, logs, 1)
	assert.Equal(t, "AJUSTES", logs[0].Action)
	assert.Equal(t, "admin", logs[0].Admin)
}

func TestTrackFlag(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	flag, err := svc.SetTrackFlag(ctx, director, "amarilla")
	require.NoError(t, err)
	assert.Equal(t, models.FlagYellow, flag)
	assert.Equal(t, models.FlagYellow, repo.GetTrackStatus(ctx))

	_, err = svc.SetTrackFlag(ctx, director, "violeta")
	require.Error(t, err)
}

func TestMarketplace(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	item, err := svc.SaveListing(ctx, nil, ListingForm{Title: "Motor 150cc", Price: "$850.000 ARS", Category: "motor", Condition: "Nuevo", Contact: "+54 11 8765 4321"})
	require.NoError(t, err)
	assert.Equal(t, models.ListingEngine, item.Category)
	assert.Equal(t, defaultListingImage, item.Image)

	_, err = svc.SaveListing(ctx, nil, ListingForm{Title: "x", Category: "Bicicleta", Condition: "Usado", Contact: "y"})
	assert.Contains(t, err.(models.FieldErrors), "category")

	require.NoError(t, svc.DeleteListing(ctx, director, item.ID))
	assert.Empty(t, repo.GetMarketplace(ctx))
	assert.Equal(t, repository.SystemActor, repo.GetAuditLogs(ctx)[1].Admin)
}
