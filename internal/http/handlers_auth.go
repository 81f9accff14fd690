package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"retireplan/internal/auth"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		if c, err := r.Cookie(auth.CookieName); err == nil {
			if _, ok := s.sessions.Authenticate(c.Value); ok {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}
	}
	s.render(w, r, http.StatusOK, "login.html", page{Title: "Login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	if s.sessions == nil {
		s.serverError(w, r, "/login", errors.New("sessions not configured"))
		return
	}

	username := p.Get("username")
	value, sess, err := s.sessions.Login(r.Context(), username, p.GetRaw("password"))
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			atomic.AddInt64(&s.appMetrics.loginFailures, 1)
			s.logger.WarnContext(r.Context(), "Login failed",
				applog.FieldOperation, applog.OpLogin,
				applog.FieldUsername, username,
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
			s.fail(w, r, http.StatusUnauthorized, "/login", "Invalid username or password")
			return
		}
		s.serverError(w, r, "/login", err)
		return
	}

	s.sessions.SetCookie(w, value)
	s.loginLimiter.Reset(s.securityDetector.ExtractClientIP(r))
	s.logger.InfoContext(r.Context(), "User logged in",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldUsername, sess.Username)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"username": sess.Username})
		return
	}
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Redirect", "/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLoginLimited renders the rejection of a rate limited login attempt.
func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Login rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
	const msg = "Too many login attempts. Please try again later."
	if wantsJSON(r) || isHTMX(r) {
		s.fail(w, r, http.StatusTooManyRequests, "/login", msg)
		return
	}
	s.render(w, r, http.StatusTooManyRequests, "login.html", page{
		Title: "Login",
		Flash: &Flash{Kind: NotificationError, Message: msg},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		if c, err := r.Cookie(auth.CookieName); err == nil {
			s.sessions.Logout(c.Value)
		}
		s.sessions.ClearCookie(w)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type adminUsersData struct {
	Users    []userRow
	MinChars int
}

type userRow struct {
	ID        int64
	Username  string
	Protected bool
	Self      bool
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List users failed", applog.FieldError, err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	me := currentUsername(r)
	data := adminUsersData{MinChars: auth.MinPasswordLength}
	for _, u := range users {
		data.Users = append(data.Users, userRow{
			ID:        u.ID,
			Username:  u.Username,
			Protected: s.users.IsProtected(u),
			Self:      u.Username == me,
		})
	}
	s.render(w, r, http.StatusOK, "admin_users.html", page{Title: "Users", Active: "users", Data: data})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	u, err := s.users.Create(r.Context(), p.Get("username"), p.GetRaw("password"))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateUser) {
			s.fail(w, r, http.StatusUnprocessableEntity, "/admin/users", "User "+p.Get("username")+" already exists.")
			return
		}
		s.failInput(w, r, "/admin/users", err)
		return
	}
	s.succeed(w, r, http.StatusCreated, "/admin/users", "User "+u.Username+" added.",
		NewHTMXResponse().Trigger("user:created", map[string]any{"id": u.ID}),
		map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "/admin/users", err.Error())
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrProtectedUser) {
			s.fail(w, r, http.StatusForbidden, "/admin/users", "Cannot delete admin user.")
			return
		}
		s.failInput(w, r, "/admin/users", err)
		return
	}
	s.succeed(w, r, http.StatusOK, "/admin/users", "User deleted.",
		NewHTMXResponse().Trigger("user:deleted", map[string]any{"id": id}),
		map[string]string{"deleted": strconv.FormatInt(id, 10)})
}
