package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// API is the query surface served under /api.
type API interface {
	SearchPorts(query string, limit int) ([]domain.Port, error)
	PortsByCountry(country string) ([]domain.Port, error)
	Distance(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error)
	Estimate(ctx context.Context, req domain.VoyageRequest) (domain.VoyageEstimate, error)
}

// Checks combines readiness checkers; all must pass.
type Checks []sharedobs.ReadinessChecker

// CheckReadiness returns the first failing check.
func (c Checks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes the query API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A routed estimate may wait for the full engine timeout.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/ports", s.handlePorts)
	mux.HandleFunc("GET /api/distance", s.handleDistance)
	mux.HandleFunc("GET /api/estimate", s.handleEstimateQuery)
	mux.HandleFunc("POST /api/estimate", s.handleEstimateBody)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// errInvalidInput marks request errors the caller can fix.
var errInvalidInput = errors.New("invalid input")

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, domain.ErrInvalidCoordinates):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrVesselUnknown):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDistanceUnavailable):
		status = http.StatusBadGateway
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		status = http.StatusServiceUnavailable
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
