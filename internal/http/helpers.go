package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"retireplan/internal/auth"
)

const flashCookie = "retireplan_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    NotificationType
	Message string
}

// setFlash stores msg for the page the client is redirected to.
func setFlash(w http.ResponseWriter, kind NotificationType, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    string(kind) + "." + base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	kind, encoded, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(msg) == 0 {
		return nil
	}
	switch NotificationType(kind) {
	case NotificationSuccess, NotificationError, NotificationWarning, NotificationInfo:
	default:
		kind = string(NotificationInfo)
	}
	return &Flash{Kind: NotificationType(kind), Message: string(msg)}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the caller is an API client rather than a form.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// formatAchievement renders a percentage with one decimal, e.g. 93.1%.
func formatAchievement(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

func currentUsername(r *http.Request) string {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		return sess.Username
	}
	return ""
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
