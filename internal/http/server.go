package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"milkbill/internal/billing"
	"milkbill/internal/log"
	"milkbill/internal/metrics"
	"milkbill/internal/middleware/ratelimit"
	"milkbill/internal/middleware/security"
	"milkbill/internal/middleware/trace"
	appweb "milkbill/web"
)

// maxBodyBytes bounds a bill submission.
const maxBodyBytes = 64 << 10

// Options tunes a Server. The zero value is usable.
type Options struct {
	// RateLimitPerMinute caps writes per client. Zero uses the limiter default.
	RateLimitPerMinute int
	Logger             *log.Logger
	// Templates replaces the embedded templates; the FS must hold templates/*.html.
	Templates fs.FS
	Now       func() time.Time
}

type Server struct {
	http.Server
	templates   *template.Template
	service     *billing.Service
	metrics     *metrics.Metrics
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	logger      *log.Logger
	started     time.Time
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc *billing.Service, m *metrics.Metrics, opts Options) *Server {
	if m == nil {
		m = metrics.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		service:     svc,
		metrics:     m,
		rateLimiter: ratelimit.NewLimiter(limiterCfg),
		detector:    security.NewDetector(),
		logger:      logger.WithComponent(log.ComponentHTTP),
		started:     now(),
		now:         now,
	}
	m.TrackRateLimitClients(s.rateLimiter.ActiveClients)

	templatesFS := opts.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/{$}", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/bills", s.handleCreateBill)
	mux.HandleFunc("/bills/search", s.handleSearch)
	mux.HandleFunc("/bills/{id}", s.handleDeleteBill)
	// Plain form fallback for browsers without htmx.
	mux.HandleFunc("/bills/{id}/delete", s.handleDeleteBill)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(func(*http.Request) { m.SuspiciousRequests.Inc() })(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP, m).Middleware(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	handler = log.Middleware(logger)(handler)
	s.Handler = handler

	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// handleRateLimited answers a throttled write with a toast instead of
// replacing any part of the page.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited.Inc()
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ActionFailed(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").
		BodyString("Rate limit exceeded. Please try again later.").
		Write(w)
}

// render executes a named template into a buffer so a failure never
// leaves a half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// renderError logs a template failure and answers 500.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, name string, err error) {
	log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
		"Template rendering failed",
		log.FieldOperation, log.OpRender,
		"template", name,
		log.FieldError, err)
	InternalServerError("Something went wrong").Write(w)
}
