package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/koopa0/finsight/internal/dashboard"
	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/session"
)

// ChatAgent runs one conversational turn against the model.
// *agent.Agent satisfies it.
type ChatAgent interface {
	Chat(ctx context.Context, sess *session.Session, message string) (string, error)
}

// SnapshotService assembles the dashboard summary.
// *dashboard.Service satisfies it.
type SnapshotService interface {
	Snapshot(ctx context.Context, sessionID string) (dashboard.Summary, error)
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    log.Logger
	Agent     ChatAgent         // Required
	Dashboard SnapshotService   // Required
	Registry  *session.Registry // Required

	CORSOrigins []string // Allowed origins for CORS
	TrustProxy  bool     // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateRPS     float64  // Rate limiter refill per IP, tokens/sec (0 = default 10)
	RateBurst   int      // Rate limiter burst size per IP (0 = default 30)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Agent == nil {
		return nil, errors.New("chat agent is required")
	}
	if cfg.Dashboard == nil {
		return nil, errors.New("dashboard service is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("session registry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		agent:    cfg.Agent,
		registry: cfg.Registry,
		logger:   logger,
	}
	dh := &dashboardHandler{
		service: cfg.Dashboard,
		logger:  logger,
	}
	sh := &sessionsHandler{
		registry: cfg.Registry,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)
	mux.HandleFunc("GET /api/dashboard", dh.snapshot)
	mux.HandleFunc("GET /api/sessions", sh.list)

	// Rate limiter: per-IP token bucket
	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 30
	}
	rl := newRateLimiter(rps, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Wrap with security headers
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.Handle("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Registry, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
