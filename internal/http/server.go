package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spendly/internal/auth"
	"spendly/internal/log"
	"spendly/internal/metrics"
	"spendly/internal/middleware/ratelimit"
	"spendly/internal/middleware/security"
	"spendly/internal/middleware/trace"
	"spendly/internal/pages"
	"spendly/internal/session"
	appweb "spendly/web"
)

// Deps are the collaborators the web server is built from.
type Deps struct {
	Auth  *auth.Controller
	Pages *pages.Set
	Prefs *session.Preferences
	// Ping checks the local store for /readyz. Optional.
	Ping    func(ctx context.Context) error
	Metrics *metrics.Metrics
	Logger  *log.Logger

	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates map[string]*template.Template
	auth      *auth.Controller
	pages     *pages.Set
	prefs     *session.Preferences
	ping      func(ctx context.Context) error
	metrics   *metrics.Metrics
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Pages == nil {
		return nil, errors.New("http: auth controller and pages are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(false)
	}

	tmpl, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector(deps.Logger)
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		templates:        tmpl,
		auth:             deps.Auth,
		pages:            deps.Pages,
		prefs:            deps.Prefs,
		ping:             deps.Ping,
		metrics:          deps.Metrics,
		logger:           deps.Logger.WithComponent(log.ComponentHTTP),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(deps.Logger, detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Advisor replies can take as long as the backend timeout.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /preferences/theme", s.handleToggleTheme)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireAuth(h))
	}
	protected("GET /dashboard", s.handleDashboard)
	protected("GET /budget", s.handleBudgetPage)
	protected("POST /budget", s.handleCreateBudget)
	protected("GET /goals", s.handleGoalsPage)
	protected("POST /goals", s.handleCreateGoal)
	protected("POST /goals/{id}/progress", s.handleUpdateGoalProgress)
	protected("GET /transactions", s.handleTransactionsPage)
	protected("POST /transactions", s.handleCreateTransaction)
	protected("GET /chat", s.handleChatPage)
	protected("POST /chat", s.handleSendChat)

	// HTMX partials
	protected("GET /ui/dashboard", s.handleDashboardPartial)
	protected("GET /ui/budgets", s.handleBudgetsPartial)
	protected("GET /ui/goals", s.handleGoalsPartial)
	protected("GET /ui/transactions", s.handleTransactionsPartial)
	protected("GET /ui/chat", s.handleChatPartial)
	protected("POST /ui/{page}/dismiss", s.handleDismiss)
}

// middleware wraps the mux, outermost first: tracing, metrics, security
// headers, suspicious request detection, rate limiting of writes and the
// request-scoped logger.
func (s *Server) middleware(mux http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimited)
	scoped := log.Middleware(s.logger, trace.GetRequestID)

	var h http.Handler = mux
	h = scoped(h)
	h = limit(h)
	h = s.securityDetector.Middleware(h)
	h = headers.Middleware(h)
	h = s.metrics.InstrumentHandler(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests. Please wait a moment and try again.").
		Write(w)
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
