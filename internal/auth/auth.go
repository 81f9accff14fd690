// Package auth handles password hashing and cookie sessions.
//
// Sessions live in memory only; a restart logs everybody out. The cookie
// carries a random session id and an HMAC of it so that ids cannot be
// guessed or forged without the server secret.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"retireplan/internal/cache"
	"retireplan/internal/core"
	"retireplan/internal/ports"
)

const (
	CookieName = "retireplan_session"

	maxSessions = 1024
	// Minimum length of a new password.
	MinPasswordLength = 8
)

// Hash used to keep login timing uniform for unknown usernames.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("retireplan-dummy-password"), bcrypt.DefaultCost)

type Session struct {
	ID        string
	UserID    int64
	Username  string
	CreatedAt time.Time
}

type Manager struct {
	users    ports.UserStore
	sessions *cache.LRUCache[Session]
	secret   []byte
	ttl      time.Duration
	// Secure marks cookies as HTTPS-only.
	Secure bool
}

func NewManager(users ports.UserStore, secret string, ttl time.Duration) *Manager {
	return &Manager{
		users:    users,
		sessions: cache.NewLRUCache[Session](maxSessions, ttl),
		secret:   []byte(secret),
		ttl:      ttl,
	}
}

// Sessions exposes the session cache so it can be registered for cleanup.
func (m *Manager) Sessions() *cache.LRUCache[Session] {
	return m.sessions
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", core.ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login verifies the credentials and starts a session. It returns the
// signed cookie value.
func (m *Manager) Login(ctx context.Context, username, password string) (string, Session, error) {
	username = strings.TrimSpace(username)
	user, err := m.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", Session{}, core.ErrInvalidCredentials
		}
		return "", Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", Session{}, core.ErrInvalidCredentials
	}

	s := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: time.Now(),
	}
	m.sessions.Set(s.ID, s)
	return m.sign(s.ID), s, nil
}

// Authenticate resolves a cookie value to a live session.
func (m *Manager) Authenticate(value string) (Session, bool) {
	id, ok := m.verify(value)
	if !ok {
		return Session{}, false
	}
	return m.sessions.Get(id)
}

func (m *Manager) Logout(value string) {
	if id, ok := m.verify(value); ok {
		m.sessions.Delete(id)
	}
}

// RevokeUser ends every session of userID and returns how many were open.
func (m *Manager) RevokeUser(userID int64) int {
	return m.sessions.DeleteFunc(func(_ string, s Session) bool {
		return s.UserID == userID
	})
}

// EnsureAdmin creates the admin account when it does not exist yet. An
// existing account is left untouched so a changed password is not reset.
func (m *Manager) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := m.users.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := m.users.CreateUser(ctx, core.User{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, core.ErrDuplicateUser) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (m *Manager) sign(id string) string {
	return id + "." + m.mac(id)
}

func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.mac(id))) {
		return "", false
	}
	return id, true
}

func (m *Manager) mac(id string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
