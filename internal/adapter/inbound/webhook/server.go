package webhook

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonny/ritsu-bot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/ritsu-bot/pkg/health"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// PublicKey verifies inbound interaction signatures.
	PublicKey ed25519.PublicKey
	// RequestsPerMinute is the per-IP rate limit. Zero disables limiting.
	RequestsPerMinute int
	// EnableSync mounts the administrative command-sync route. Only set
	// on trusted local instances.
	EnableSync bool
}

// Server wraps an HTTP server with graceful shutdown support.
type Server struct {
	cfg     ServerConfig
	handler *Handler
	sync    *SyncHandler
	checker *health.Checker
	logger  *slog.Logger
	srv     *http.Server
}

// NewServer creates a new Server. sync may be nil when cfg.EnableSync is
// false.
func NewServer(cfg ServerConfig, handler *Handler, sync *SyncHandler, checker *health.Checker, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		sync:    sync,
		checker: checker,
		logger:  logger,
	}
}

// SetupRoutes builds and returns an http.Handler with all middleware applied.
// Route layout:
//
//	GET  /healthz       - Liveness probe
//	GET  /readyz        - Readiness probe (cache substrate ping)
//	POST /interactions  - Interaction deliveries (signature verified)
//	GET/POST /sync-cmds - Command sync (trusted local instances only)
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.checker.LivenessHandler())
	mux.HandleFunc("GET /readyz", s.checker.ReadinessHandler())

	// Signature verification wraps only the interactions route: the
	// probes have no body to sign, and sync-cmds is reachable only on a
	// trusted instance.
	var interactions http.Handler = s.handler
	interactions = middleware.Ed25519Auth(s.cfg.PublicKey, s.logger)(interactions)
	mux.Handle("POST /interactions", interactions)

	// Sync is triggered from a browser as often as from a script, so it
	// answers both GET and POST.
	if s.cfg.EnableSync && s.sync != nil {
		mux.Handle("GET /sync-cmds", s.sync)
		mux.Handle("POST /sync-cmds", s.sync)
	}

	// Apply middleware stack (outermost = first to execute):
	//   BodyReader -> Logging -> RateLimit
	var h http.Handler = mux
	if s.cfg.RequestsPerMinute > 0 {
		h = middleware.NewRateLimiter(s.cfg.RequestsPerMinute)(h)
	}
	h = middleware.NewLoggingMiddleware(s.logger)(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.BodyReader(h)

	return h
}

// Start starts the HTTP server and blocks until ctx is cancelled, then performs
// a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.SetupRoutes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("webhook server listening", "port", s.cfg.Port, "sync_enabled", s.cfg.EnableSync)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
