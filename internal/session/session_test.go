package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdo-portal/internal/backoffice"
	"kdo-portal/internal/models"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/storage"
)

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(storage.NewMemory(), zap.NewNop(), repository.WithBootstrapPassword("kdo-2026"))
	m := NewManager(repo, zap.NewNop())

	_, _, err := m.Login(ctx, "admin", "admin123")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	token, user, err := m.Login(ctx, " ADMIN ", "kdo-2026")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "admin", user.Username)
	assert.Empty(t, user.PasswordHash)
	assert.NotZero(t, user.LastLogin)

	cur := m.Current(ctx, token)
	require.NotNil(t, cur)
	assert.Equal(t, models.RoleSuperAdmin, cur.Role)
	assert.Nil(t, m.Current(ctx, "other-token"))

	require.NoError(t, m.Logout(ctx, token))
	assert.Nil(t, m.Current(ctx, token))

	logs := repo.GetAuditLogs(ctx)
	require.Len(t, logs, 2)
	assert.Equal(t, "LOGIN", logs[0].Action)
	assert.Equal(t, "admin", logs[0].Admin)
	assert.Equal(t, "AUTH_ERROR", logs[1].Action)
	assert.Equal(t, repository.SystemActor, logs[1].Admin)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(storage.NewMemory(), zap.NewNop(), repository.WithBootstrapPassword("kdo-2026"))
	m := NewManager(repo, zap.NewNop())

	t1, _, err := m.Login(ctx, "admin", "kdo-2026")
	require.NoError(t, err)
	t2, _, err := m.Login(ctx, "admin", "kdo-2026")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	require.NoError(t, m.Logout(ctx, t1))
	assert.Nil(t, m.Current(ctx, t1))
	assert.NotNil(t, m.Current(ctx, t2))
}

func TestSeedAdminWithoutPasswordCannotLogIn(t *testing.T) {
	repo := repository.New(storage.NewMemory(), zap.NewNop())
	m := NewManager(repo, zap.NewNop())
	_, _, err := m.Login(context.Background(), "admin", "")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestSessionFollowsStaffAccount(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(storage.NewMemory(), zap.NewNop())
	staff := backoffice.New(repo, zap.NewNop())
	m := NewManager(repo, zap.NewNop())

	u, err := staff.SaveStaff(ctx, nil, backoffice.StaffForm{
		Username: "steward", Password: "pista-2026", Name: "Luis", Role: string(models.RoleSteward),
	})
	require.NoError(t, err)
	token, _, err := m.Login(ctx, "steward", "pista-2026")
	require.NoError(t, err)

	_, err = staff.SaveStaff(ctx, nil, backoffice.StaffForm{
		ID: u.ID, Username: "steward", Name: "Luis", Role: string(models.RoleSecretary),
	})
	require.NoError(t, err)
	cur := m.Current(ctx, token)
	require.NotNil(t, cur)
	assert.Equal(t, models.RoleSecretary, cur.Role)
	assert.Empty(t, cur.PasswordHash)

	require.NoError(t, staff.DeleteStaff(ctx, nil, u.ID))
	assert.Nil(t, m.Current(ctx, token))
	assert.Nil(t, repo.GetAuth(ctx, token))
}
