package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	csvadapter "github.com/couchcryptid/roster-geo-etl/internal/adapter/csv"
	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner runs one roster mode over a record source.
// *pipeline.Pipeline implements it.
type Runner interface {
	Mode() domain.Mode
	Run(ctx context.Context, src pipeline.RecordSource, limits pipeline.Limits) (domain.RunSummary, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics and roster summary endpoints.
type Server struct {
	httpServer *http.Server
	runners    map[domain.Mode]Runner
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/summaries/{mode} routes.
func NewServer(addr string, runners []Runner, maxUpload int64, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runners:   make(map[domain.Mode]Runner, len(runners)),
		maxUpload: maxUpload,
		logger:    logger,
	}
	for _, r := range runners {
		s.runners[r.Mode()] = r
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(s))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/summaries/{mode}", s.handleSummary)

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

// CheckReadiness reports the first runner whose sinks are unreachable.
func (s *Server) CheckReadiness(ctx context.Context) error {
	for mode, r := range s.runners {
		if err := r.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s: %w", mode, err)
		}
	}
	return nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	runner, ok := s.runners[mode]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("mode %q is not enabled", mode))
		return
	}

	limits, err := parseLimits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	defer body.Close()

	src, err := csvadapter.NewReader(body, s.logger)
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}

	summary, err := runner.Run(r.Context(), src, limits)
	if err != nil {
		status := uploadStatus(err)
		if summary.Mode != "" {
			// The run finished but a sink rejected it.
			status = http.StatusBadGateway
		}
		s.logger.Error("summary request failed", "mode", mode, "error", err)
		writeError(w, status, err)
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, summary)
}

func parseLimits(r *http.Request) (pipeline.Limits, error) {
	var l pipeline.Limits
	var err error
	if l.TopCategories, err = positiveQuery(r, "top"); err != nil {
		return l, err
	}
	if l.TopLocations, err = positiveQuery(r, "top_locations"); err != nil {
		return l, err
	}
	return l, nil
}

func positiveQuery(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("query parameter %s must be a positive integer", key)
	}
	return n, nil
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, csvadapter.ErrNoHeader):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
