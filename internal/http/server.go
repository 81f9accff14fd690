package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"retireplan/internal/auth"
	"retireplan/internal/cache"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/middleware/ratelimit"
	"retireplan/internal/middleware/security"
	"retireplan/internal/middleware/trace"
	"retireplan/internal/ports"
	"retireplan/internal/services"
	appweb "retireplan/web"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Plans        *services.PlanService
	Transactions *services.TransactionService
	Progress     *services.ProgressService
	Users        *services.UserService
	Sessions     *auth.Manager
	// Store is pinged by /readyz.
	Store  ports.Pinger
	Logger *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template

	plans    *services.PlanService
	txs      *services.TransactionService
	progress *services.ProgressService
	users    *services.UserService
	sessions *auth.Manager
	store    ports.Pinger
	logger   *applog.Logger

	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	loginLimiter     *ratelimit.Limiter
	cacheManager     *cache.Manager
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime              time.Time
	transactionsWritten int64
	planWrites          int64
	loginFailures       int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		plans:            deps.Plans,
		txs:              deps.Transactions,
		progress:         deps.Progress,
		users:            deps.Users,
		sessions:         deps.Sessions,
		store:            deps.Store,
		logger:           logger,
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, applog.NewStructuredLogger(logger)),
		loginLimiter:     ratelimit.NewLimiter(ratelimit.LoginConfig()),
		cacheManager:     cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	if s.sessions != nil {
		s.cacheManager.Register(s.sessions.Sessions())
	}
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := appweb.Templates(templateFuncs())
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldComponent, applog.ComponentTemplate, applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := appweb.Static(); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	limitLogin := s.loginLimiter.Middleware(detector.ExtractClientIP, s.handleLoginLimited)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /login", security.NoStore(http.HandlerFunc(s.handleLoginPage)))
	mux.Handle("POST /login", limitLogin(security.NoStore(http.HandlerFunc(s.handleLogin))))
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /{$}", s.requireAuth(s.handleDashboard))
	mux.Handle("GET /input", s.requireAuth(s.handleInput))
	mux.Handle("POST /transactions", s.requireAuth(s.handleCreateTransaction))
	mux.Handle("POST /transactions/{id}/update", s.requireAuth(s.handleUpdateTransaction))
	mux.Handle("POST /transactions/{id}/delete", s.requireAuth(s.handleDeleteTransaction))

	mux.Handle("GET /manage", s.requireAuth(s.handleManage))
	mux.Handle("POST /plan", s.requireAuth(s.handleCreatePlan))
	mux.Handle("POST /plan/{id}/update", s.requireAuth(s.handleUpdatePlan))
	mux.Handle("POST /plan/{id}/delete", s.requireAuth(s.handleDeletePlan))

	mux.Handle("GET /admin/users", s.requireAuth(s.handleAdminUsers))
	mux.Handle("POST /admin/users", s.requireAuth(s.handleCreateUser))
	mux.Handle("POST /admin/users/{id}/delete", s.requireAuth(s.handleDeleteUser))

	mux.Handle("GET /api/chart-data", s.requireAuth(s.handleChartData))
	mux.Handle("GET /api/summary", s.requireAuth(s.handleSummaryAPI))

	// Outermost first: tracing sees every request, including blocked ones.
	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount": core.FormatAmount,
		"pct":    formatAchievement,
		"date":   func(d core.Date) string { return d.String() },
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		if shutdownErr != nil {
			slog.ErrorContext(ctx, "HTTP server shutdown error",
				applog.FieldComponent, applog.ComponentHTTP,
				applog.FieldOperation, applog.OpShutdown,
				applog.FieldError, shutdownErr)
		}
	})
	return shutdownErr
}
