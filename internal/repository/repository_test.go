package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
	"kdo-portal/internal/storage"
	"kdo-portal/internal/util"
)

func newRepo(t *testing.T, opts ...Option) (*Repository, *storage.Memory) {
	t.Helper()
	st := storage.NewMemory()
	return New(st, zap.NewNop(), opts...), st
}

func TestGetPilotsSeedVersusWrittenEmpty(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	assert.Equal(t, seedPilots(), r.GetPilots(ctx))

	require.NoError(t, r.SavePilots(ctx, []models.Pilot{}))
	got := r.GetPilots(ctx)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, r.SavePilots(ctx, nil))
	assert.Empty(t, r.GetPilots(ctx))
}

func TestEmptyDefaults(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	assert.Empty(t, r.GetRegulations(ctx))
	assert.Empty(t, r.GetMarketplace(ctx))
	assert.Empty(t, r.GetAuditLogs(ctx))
	assert.Empty(t, r.GetVotes(ctx))
	assert.Len(t, r.GetPenalties(ctx), 6)
	assert.Len(t, r.GetPressReleases(ctx), 1)
	assert.Equal(t, DefaultSettings(), r.GetSettings(ctx))
	assert.Equal(t, models.FlagGreen, r.GetTrackStatus(ctx))
	assert.Equal(t, DefaultCategories, r.GetCategories(ctx))

	champs := r.GetChampionships(ctx)
	require.Len(t, champs, 1)
	assert.Len(t, champs[0].Events, 10)
}

func TestCorruptValueDegradesToDefault(t *testing.T) {
	ctx := context.Background()
	r, st := newRepo(t)
	require.NoError(t, st.Set(ctx, KeyPilots, []byte("{not json")))
	require.NoError(t, st.Set(ctx, KeySettings, []byte("[]")))
	require.NoError(t, st.Set(ctx, KeyTrack, []byte("Morada")))

	assert.Equal(t, seedPilots(), r.GetPilots(ctx))
	assert.Equal(t, DefaultSettings(), r.GetSettings(ctx))
	assert.Equal(t, models.FlagGreen, r.GetTrackStatus(ctx))
}

func TestSaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	pilots := []models.Pilot{{
		ID: "p-1", Number: "7", Name: "ANA SOSA", Category: "Menores", Status: models.StatusPending,
		Ranking: 99, MedicalLicense: "M-7", SportsLicense: "S-7", TransponderID: "TX-7",
		ConductPoints: 10, LastUpdated: "2026-10-15", CreatedAt: 1760486400000,
		Stats: models.PilotStats{Wins: 1, Podiums: 2, Poles: 3, Points: 12.5},
	}}
	require.NoError(t, r.SavePilots(ctx, pilots))
	assert.Equal(t, pilots, r.GetPilots(ctx))

	champs := seedChampionships()
	champs[0].Events[0].BriefingSigned = []string{"1"}
	champs[0].Events[0].TechnicalScrutiny = map[string]bool{"1": true}
	require.NoError(t, r.SaveChampionships(ctx, champs))
	assert.Equal(t, champs, r.GetChampionships(ctx))

	regs := []models.Regulation{{ID: "r1", Title: "Reglamento Técnico", Category: models.RegulationTechnical, Version: "1.0", FileData: "JVBERi0="}}
	require.NoError(t, r.SaveRegulations(ctx, regs))
	assert.Equal(t, regs, r.GetRegulations(ctx))

	settings := DefaultSettings()
	settings.MaintenanceMode = true
	settings.OrbitsIP = "192.168.0.10"
	require.NoError(t, r.SaveSettings(ctx, settings))
	assert.Equal(t, settings, r.GetSettings(ctx))

	require.NoError(t, r.SaveTrackStatus(ctx, models.FlagRed))
	assert.Equal(t, models.FlagRed, r.GetTrackStatus(ctx))
}

func TestAddLogRingBuffer(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	var hooked int
	r, _ := newRepo(t,
		WithClock(func() time.Time { return clock }),
		WithAuditHook(func(models.AuditLog) { hooked++ }),
	)
	actor := &models.AdminUser{Username: "admin"}

	for i := 0; i < AuditCapacity; i++ {
		require.NoError(t, r.AddLog(ctx, actor, "TEST", fmt.Sprintf("entry %d", i)))
	}
	logs := r.GetAuditLogs(ctx)
	require.Len(t, logs, AuditCapacity)
	assert.Equal(t, "entry 0", logs[AuditCapacity-1].Details)

	require.NoError(t, r.AddLog(ctx, nil, "TEST", "entry 100"))
	logs = r.GetAuditLogs(ctx)
	require.Len(t, logs, AuditCapacity)
	assert.Equal(t, "entry 100", logs[0].Details)
	assert.Equal(t, SystemActor, logs[0].Admin)
	assert.Equal(t, "entry 1", logs[AuditCapacity-1].Details)
	assert.Equal(t, clock.UnixMilli(), logs[0].Timestamp)
	assert.Equal(t, AuditCapacity+1, hooked)
}

func TestAuditRingPush(t *testing.T) {
	var ring AuditRing
	ring = ring.Push(models.AuditLog{ID: "a"})
	ring = ring.Push(models.AuditLog{ID: "b"})
	require.Len(t, ring, 2)
	assert.Equal(t, "b", ring[0].ID)
}

func TestAuthLifecycle(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	assert.Nil(t, r.GetAuth(ctx, "s1"))
	assert.Nil(t, r.GetAuth(ctx, ""))

	u := &models.AdminUser{ID: "admin-1", Username: "admin", PasswordHash: "secret-hash", Role: models.RoleSuperAdmin}
	require.NoError(t, r.SetAuth(ctx, "s1", u))

	got := r.GetAuth(ctx, "s1")
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Username)
	assert.Empty(t, got.PasswordHash, "sessions never hold the credential")
	assert.Nil(t, r.GetAuth(ctx, "s2"))

	require.NoError(t, r.SetAuth(ctx, "s1", nil))
	assert.Nil(t, r.GetAuth(ctx, "s1"))
}

func TestCastVoteCountsEveryCall(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)

	for i := 0; i < 3; i++ {
		_, err := r.CastVote(ctx, "1")
		require.NoError(t, err)
	}
	n, err := r.CastVote(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[string]int{"1": 3, "2": 1}, r.GetVotes(ctx))
}

func TestBootstrapPasswordIsHashed(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t, WithBootstrapPassword("s3cret-kdo"))

	admins := r.GetAdminUsers(ctx)
	require.Len(t, admins, 1)
	assert.Equal(t, ProtectedAdminID, admins[0].ID)
	assert.NotEqual(t, "s3cret-kdo", admins[0].PasswordHash)
	assert.True(t, util.CheckPassword(admins[0].PasswordHash, "s3cret-kdo"))

	r2, _ := newRepo(t)
	assert.Empty(t, r2.GetAdminUsers(ctx)[0].PasswordHash)
}

type failingStore struct{ storage.Store }

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("disk gone")
}

func (failingStore) Set(context.Context, string, []byte) error { return fmt.Errorf("disk full") }

func TestStorageErrorsReadsDegradeWritesFail(t *testing.T) {
	ctx := context.Background()
	r := New(failingStore{}, zap.NewNop())

	assert.Equal(t, seedPilots(), r.GetPilots(ctx))
	err := r.SavePilots(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyPilots)
	require.Error(t, r.AddLog(ctx, nil, "X", "y"))
}
