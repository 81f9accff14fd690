package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"retireplan/internal/auth"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/middleware/security"
)

// page is the data every full page template receives.
type page struct {
	Title    string
	Active   string
	Username string
	Flash    *Flash
	Data     any
}

// render executes a page template into a buffer first so a template error
// never leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if p.Flash == nil {
		p.Flash = popFlash(w, r)
	}
	if p.Username == "" {
		p.Username = currentUsername(r)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, p); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldOperation, applog.OpRender,
			"template", name,
			applog.FieldError, err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail rejects a submission. Browsers get a flash message and a redirect;
// HTMX and JSON callers get the status directly.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, redirect, msg string) {
	switch {
	case wantsJSON(r):
		writeJSON(w, status, map[string]string{"error": msg})
	case isHTMX(r):
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
	default:
		setFlash(w, NotificationError, msg)
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// failInput maps a validation or store error to the right response.
func (s *Server) failInput(w http.ResponseWriter, r *http.Request, redirect string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		s.fail(w, r, http.StatusNotFound, redirect, "Entry not found")
	case isClientError(err):
		s.fail(w, r, http.StatusUnprocessableEntity, redirect, err.Error())
	default:
		s.serverError(w, r, redirect, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, redirect string, err error) {
	s.logger.ErrorContext(r.Context(), "Request failed",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
	const msg = "Something went wrong, please try again"
	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
	case isHTMX(r):
		InternalServerError(msg).Write(w)
	default:
		setFlash(w, NotificationError, msg)
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// succeed acknowledges a write. b carries the HTMX triggers for the change;
// payload is returned to JSON callers.
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, status int, redirect, msg string, b *HTMXResponseBuilder, payload any) {
	switch {
	case wantsJSON(r):
		writeJSON(w, status, payload)
	case isHTMX(r):
		b.TriggerSuccessNotification(msg).TriggerFormReset().Write(w)
	default:
		setFlash(w, NotificationSuccess, msg)
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

var clientErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidYear,
	core.ErrInvalidAge,
	core.ErrNegativeTarget,
	core.ErrDuplicateYear,
	core.ErrDuplicateUser,
	core.ErrEmptyUsername,
	core.ErrUsernameTooLong,
	core.ErrEmptyPassword,
	core.ErrProtectedUser,
	core.ErrWeakPassword,
}

func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// requireAuth resolves the session cookie. Pages redirect to the login form;
// API and HTMX callers get 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sessions != nil {
			if c, err := r.Cookie(auth.CookieName); err == nil {
				if sess, ok := s.sessions.Authenticate(c.Value); ok {
					next(w, r.WithContext(auth.WithSession(r.Context(), sess)))
					return
				}
			}
		}
		switch {
		case wantsJSON(r) || isAPIPath(r):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		case isHTMX(r):
			NewHTMXResponse().Status(http.StatusUnauthorized).Header("HX-Redirect", "/login").Write(w)
		default:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		}
	}))
}

func isAPIPath(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
