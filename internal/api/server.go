// Package api exposes the app-store backends as a hypermedia JSON API.
package api

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
	"github.com/R3E-Network/appstore_gateway/internal/httputil"
	"github.com/R3E-Network/appstore_gateway/internal/logging"
	"github.com/R3E-Network/appstore_gateway/internal/metrics"
	"github.com/R3E-Network/appstore_gateway/internal/middleware"
	"github.com/R3E-Network/appstore_gateway/internal/store"
)

const (
	ServiceName = "appstore-gateway"
)

// Config configures the API server.
type Config struct {
	Resolver       *store.Resolver
	Logger         *logging.Logger
	Metrics        *metrics.Metrics // optional; /metrics is not served without it
	BasePath       string
	TrustProxy     bool
	BackendTimeout time.Duration
	CORSOrigins    []string
	Version        string
}

// Server routes requests to the selected store backend.
type Server struct {
	resolver       *store.Resolver
	logger         *logging.Logger
	metrics        *metrics.Metrics
	basePath       string
	trustProxy     bool
	backendTimeout time.Duration
	corsOrigins    []string
	version        string
	started        time.Time

	router  *mux.Router
	handler http.Handler
}

// New creates the API server and registers its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscard()
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}

	s := &Server{
		resolver:       cfg.Resolver,
		logger:         logger,
		metrics:        cfg.Metrics,
		basePath:       basePath,
		trustProxy:     cfg.TrustProxy,
		backendTimeout: cfg.BackendTimeout,
		corsOrigins:    cfg.CORSOrigins,
		version:        cfg.Version,
		started:        time.Now(),
	}

	s.router = mux.NewRouter()
	// Vars stay escaped so ids containing "%2F" remain one path segment.
	s.router.UseEncodedPath()
	s.router.NotFoundHandler = http.HandlerFunc(handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	if s.metrics != nil {
		s.router.Use(middleware.MetricsMiddleware(ServiceName, s.metrics))
	}
	s.registerRoutes()

	var h http.Handler = s.router
	h = trimTrailingSlash(h)
	if len(s.corsOrigins) > 0 {
		h = middleware.NewCORSMiddleware(s.corsOrigins).Handler(h)
	}
	h = middleware.NewTracingMiddleware(s.logger).Handler(h)
	h = middleware.Recovery(s.logger)(h)
	s.handler = h

	return s
}

// Handler returns the root handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router exposes the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// =============================================================================
// Routes
// =============================================================================

func (s *Server) registerRoutes() {
	get := []string{http.MethodGet, http.MethodHead}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(get...)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(get...)
	}

	s.router.HandleFunc(s.mount("/"), s.handleIndex).Methods(get...)
	s.router.HandleFunc(s.mount("/apps"), s.handleApps).Methods(get...)
	s.router.HandleFunc(s.mount("/apps/{id}"), s.handleApp).Methods(get...)
	s.router.HandleFunc(s.mount("/apps/{id}/similar"), s.handleSimilar).Methods(get...)
	s.router.HandleFunc(s.mount("/apps/{id}/datasafety"), s.handleDataSafety).Methods(get...)
	s.router.HandleFunc(s.mount("/apps/{id}/permissions"), s.handlePermissions).Methods(get...)
	s.router.HandleFunc(s.mount("/apps/{id}/reviews"), s.handleReviews).Methods(get...)
	s.router.HandleFunc(s.mount("/developers"), s.handleDeveloperGuidance).Methods(get...)
	s.router.HandleFunc(s.mount("/developers/{id}"), s.handleDeveloper).Methods(get...)
	s.router.HandleFunc(s.mount("/categories"), s.handleCategories).Methods(get...)
}

// mount places route under the configured base path.
func (s *Server) mount(route string) string {
	return path.Join("/", s.basePath, route)
}

// trimTrailingSlash lets every route match with or without a trailing slash.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if len(p) > 1 && strings.HasSuffix(p, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimRight(p, "/")
			if r2.URL.Path == "" {
				r2.URL.Path = "/"
			}
			if r2.URL.RawPath != "" {
				r2.URL.RawPath = strings.TrimRight(r2.URL.RawPath, "/")
				if r2.URL.RawPath == "" {
					r2.URL.RawPath = "/"
				}
			}
			r2.RequestURI = r2.URL.RequestURI()
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, svcerrors.NotFound("route "+r.URL.Path+" not found"))
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteError(w, svcerrors.MethodNotAllowed())
}

// =============================================================================
// Health
// =============================================================================

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}
