package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	default:
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.Sessions().Size()
	}
	checks["sessions"] = map[string]any{
		"active": sessions,
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.loginLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.loginLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.Sessions().Size()
	}

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "HTTP responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	metric("transaction_writes_total", "counter", "Transactions created, updated or deleted", atomic.LoadInt64(&s.appMetrics.transactionsWritten))
	metric("plan_writes_total", "counter", "Plan entries created, updated or deleted", atomic.LoadInt64(&s.appMetrics.planWrites))
	metric("login_failures_total", "counter", "Rejected login attempts", atomic.LoadInt64(&s.appMetrics.loginFailures))
	metric("sessions_active", "gauge", "Open login sessions", int64(sessions))
	metric("rate_limit_hits_total", "counter", "Login attempts rejected by the rate limiter", rateLimitMetrics.LimitedHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the login rate limiter", rateLimitMetrics.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests matching scanner patterns", securityMetrics.SuspiciousRequests)
	metric("security_blocked_requests_total", "counter", "Requests blocked by the security detector", securityMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
