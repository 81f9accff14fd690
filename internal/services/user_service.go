package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"retireplan/internal/auth"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/ports"
)

// UserService manages login accounts. The configured admin account cannot
// be deleted.
type UserService struct {
	store     ports.UserStore
	sessions  *auth.Manager
	protected string
}

func NewUserService(store ports.UserStore, sessions *auth.Manager, adminUsername string) *UserService {
	return &UserService{store: store, sessions: sessions, protected: adminUsername}
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// IsProtected reports whether u is the configured admin.
func (s *UserService) IsProtected(u core.User) bool {
	return s.protected != "" && u.Username == s.protected
}

// Create adds a user. A taken name fails with core.ErrDuplicateUser.
func (s *UserService) Create(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if len(password) < auth.MinPasswordLength {
		if password == "" {
			return core.User{}, core.ErrEmptyPassword
		}
		return core.User{}, fmt.Errorf("%w: use at least %d characters", core.ErrWeakPassword, auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u := core.User{Username: username, PasswordHash: hash}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", username, err)
	}
	u.ID = id
	slog.InfoContext(ctx, "User created",
		applog.FieldComponent, applog.ComponentAuth,
		applog.FieldID, id,
		applog.FieldUsername, username)
	return u, nil
}

// Delete removes a user and ends their sessions. Deleting the configured
// admin fails with core.ErrProtectedUser.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("get user %d: %w", id, err)
	}
	if s.IsProtected(u) {
		return fmt.Errorf("delete user %q: %w", u.Username, core.ErrProtectedUser)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	revoked := 0
	if s.sessions != nil {
		revoked = s.sessions.RevokeUser(id)
	}
	slog.InfoContext(ctx, "User deleted",
		applog.FieldComponent, applog.ComponentAuth,
		applog.FieldID, id,
		applog.FieldUsername, u.Username,
		"revoked_sessions", revoked)
	return nil
}
