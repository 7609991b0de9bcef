package backoffice

import (
	"context"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/repository"
	"kdo-portal/internal/util"
)

type StaffForm struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// SaveStaff creates or edits an official account. Passwords are stored as
// bcrypt hashes; an edit without a password keeps the current one.
func (s *Service) SaveStaff(ctx context.Context, actor *models.AdminUser, f StaffForm) (models.AdminUser, error) {
	editing := f.ID != ""
	username := strings.ToLower(strings.TrimSpace(f.Username))

	errs := models.FieldErrors{}
	if username == "" {
		errs.Add("username", "Usuario y Password son requeridos.")
	}
	if !editing && f.Password == "" {
		errs.Add("password", "Usuario y Password son requeridos.")
	}
	role, err := models.ParseRole(f.Role)
	if err != nil {
		errs.Add("role", "Rol inválido")
	}
	if err := errs.Err(); err != nil {
		return models.AdminUser{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.repo.GetAdminUsers(ctx)
	for _, u := range users {
		if u.Username == username && u.ID != f.ID {
			return models.AdminUser{}, models.FieldErrors{"username": "El usuario ya existe"}
		}
	}

	user := models.AdminUser{
		ID:          f.ID,
		Username:    username,
		Name:        strings.TrimSpace(f.Name),
		Role:        role,
		Permissions: []string{"READ", "WRITE"},
	}
	idx := -1
	if editing {
		idx = findIndex(users, func(u models.AdminUser) bool { return u.ID == f.ID })
		if idx < 0 {
			return models.AdminUser{}, models.NotFoundError{Resource: "staff"}
		}
		user.PasswordHash = users[idx].PasswordHash
		user.LastLogin = users[idx].LastLogin
		if f.ID == repository.ProtectedAdminID {
			user.Role = models.RoleSuperAdmin
			user.Permissions = users[idx].Permissions
		}
	} else {
		user.ID = util.NewID()
	}
	if f.Password != "" {
		h, err := util.HashPassword(f.Password)
		if err != nil {
			return models.AdminUser{}, err
		}
		user.PasswordHash = h
	}

	if editing {
		users[idx] = user
	} else {
		users = append(users, user)
	}
	if err := s.repo.SaveAdminUsers(ctx, users); err != nil {
		return models.AdminUser{}, err
	}
	return user.Public(), s.repo.AddLog(ctx, actor, "STAFF", verb(editing, "Editado", "Nuevo oficial")+": "+user.Name)
}

// DeleteStaff removes an official. The seeded SuperAdmin cannot be removed.
func (s *Service) DeleteStaff(ctx context.Context, actor *models.AdminUser, id string) error {
	if id == repository.ProtectedAdminID {
		return models.ErrProtectedAccount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.repo.GetAdminUsers(ctx)
	idx := findIndex(users, func(u models.AdminUser) bool { return u.ID == id })
	if idx < 0 {
		return models.NotFoundError{Resource: "staff"}
	}
	if err := s.repo.SaveAdminUsers(ctx, without(users, idx)); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "STAFF", "Oficial removido ID: "+id)
}

// ListStaff returns the accounts without credentials.
func (s *Service) ListStaff(ctx context.Context) []models.AdminUser {
	users := s.repo.GetAdminUsers(ctx)
	out := make([]models.AdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
