// Package session runs the admin login lifecycle. A login produces an opaque
// token bound to the admin in the repository; handlers resolve the token
// once per request and pass the admin along explicitly.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

type Repository interface {
	GetAdminUsers(ctx context.Context) []models.AdminUser
	SaveAdminUsers(ctx context.Context, users []models.AdminUser) error
	GetAuth(ctx context.Context, sessionID string) *models.AdminUser
	SetAuth(ctx context.Context, sessionID string, user *models.AdminUser) error
	AddLog(ctx context.Context, actor *models.AdminUser, action, detail string) error
}

// Manager issues and revokes admin sessions. Sessions do not expire and
// failed logins are not rate limited.
type Manager struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(repo Repository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, logger: logger.Named("session"), now: time.Now}
}

// Login checks the credentials and opens a session.
func (m *Manager) Login(ctx context.Context, username, password string) (string, *models.AdminUser, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	users := m.repo.GetAdminUsers(ctx)
	idx := -1
	for i, u := range users {
		if u.Username == username && util.CheckPassword(u.PasswordHash, password) {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.logger.Info("login rejected", zap.String("username", username))
		if err := m.repo.AddLog(ctx, nil, "AUTH_ERROR", "Fallo de autenticación: "+username); err != nil {
			return "", nil, err
		}
		return "", nil, models.ErrInvalidCredentials
	}

	users[idx].LastLogin = m.now().UnixMilli()
	if err := m.repo.SaveAdminUsers(ctx, users); err != nil {
		return "", nil, err
	}
	user := users[idx].Public()
	token := uuid.NewString()
	if err := m.repo.SetAuth(ctx, token, &user); err != nil {
		return "", nil, err
	}
	if err := m.repo.AddLog(ctx, &user, "LOGIN", "Acceso autorizado: "+user.Username); err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Logout closes the session. Unknown tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.repo.SetAuth(ctx, token, nil)
}

// Current resolves token to the logged-in admin, or nil. The account is
// looked up again on every call, so deleting it ends its sessions and role
// changes apply to the next request.
func (m *Manager) Current(ctx context.Context, token string) *models.AdminUser {
	if token == "" {
		return nil
	}
	held := m.repo.GetAuth(ctx, token)
	if held == nil {
		return nil
	}
	for _, u := range m.repo.GetAdminUsers(ctx) {
		if u.ID == held.ID {
			fresh := u.Public()
			return &fresh
		}
	}
	m.logger.Info("session dropped, account removed", zap.String("username", held.Username))
	if err := m.repo.SetAuth(ctx, token, nil); err != nil {
		m.logger.Warn("drop session", zap.Error(err))
	}
	return nil
}
