// Package serve exposes the batch engine over HTTP: batch submission,
// check-type discovery, liveness, and metrics.
package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/check"
	"github.com/jonwraymond/probeops/observe"
)

// BatchStore persists finished batches. *store.DB satisfies it.
type BatchStore interface {
	SaveBatch(ctx context.Context, startedAt time.Time, res *batch.Result) error
}

// Publisher emits finished batches to a downstream sink.
// *publish.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, res *batch.Result) error
}

// Config configures the server.
type Config struct {
	// Defaults is the runner configuration used when a submission does
	// not override a knob. Its Observer also supplies the server logger.
	Defaults batch.RunnerConfig

	// AllowedOrigins configures CORS. Empty disables CORS headers.
	AllowedOrigins []string

	// APIKeyHashes lists SHA-256 hex digests of accepted API keys
	// (X-API-Key header). Empty together with JWTSecret disables auth.
	APIKeyHashes []string

	// JWTSecret verifies HS256 bearer tokens. Empty disables JWT auth.
	JWTSecret []byte

	// EnableMetrics exposes Prometheus exposition on /metrics.
	EnableMetrics bool

	// MaxBatchSize rejects submissions with more requests than this.
	// Default: 1000
	MaxBatchSize int
}

// Server holds the chi router and its dependencies.
type Server struct {
	config    Config
	registry  *check.Registry
	logger    observe.Logger
	store     BatchStore
	publisher Publisher
	router    chi.Router
}

// New creates a server over the given registry and registers all routes.
func New(registry *check.Registry, config Config) *Server {
	// Apply defaults
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 1000
	}

	logger := observe.NopLogger()
	if config.Defaults.Observer != nil {
		logger = config.Defaults.Observer.Logger()
	}

	s := &Server{
		config:   config,
		registry: registry,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// SetStore attaches an optional store; finished batches are persisted
// to it best-effort.
func (s *Server) SetStore(st BatchStore) {
	s.store = st
}

// SetPublisher attaches an optional publisher; finished batches are
// emitted to it best-effort.
func (s *Server) SetPublisher(p Publisher) {
	s.publisher = p
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		}))
	}

	r.Get("/healthz", s.handleLiveness)
	if s.config.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/v1/checks", s.handleListChecks)
		r.Post("/v1/batches", s.handleRunBatch)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info(r.Context(), "request",
			observe.Field{Key: "method", Value: r.Method},
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "status", Value: ww.Status()},
			observe.Field{Key: "elapsed_ms", Value: time.Since(start).Milliseconds()},
		)
	})
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
