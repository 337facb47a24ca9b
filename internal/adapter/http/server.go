package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/pipeline"
	"github.com/couchcryptid/sfaf-etl/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportSource exposes the most recent pipeline run report.
type ReportSource interface {
	LastReport() (pipeline.Report, bool)
}

// SummarySource exposes aggregate statistics over the accepted records.
type SummarySource interface {
	Summary() report.Summary
}

// Server exposes health, readiness, metrics, and the record query API.
type Server struct {
	httpServer *http.Server
	store      *Store
	reports    ReportSource
	summary    SummarySource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. ready gates /readyz; the pipeline becomes ready once its
// run completes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, store *Store, reports ReportSource, summary SummarySource, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		reports: reports,
		summary: summary,
		logger:  logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/records", s.handleListRecords)
		r.Get("/records/{serial}", s.handleGetRecord)
		r.Get("/report", s.handleReport)
		r.Get("/summary", s.handleSummary)
	})

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

type recordList struct {
	Total   int                       `json:"total"`
	Offset  int                       `json:"offset"`
	Limit   int                       `json:"limit"`
	Records []domain.NormalizedRecord `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	records, total := s.store.Query(params.filter, params.offset, params.limit)
	render.JSON(w, r, recordList{
		Total:   total,
		Offset:  params.offset,
		Limit:   params.limit,
		Records: records,
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	records := s.store.BySerial(serial)
	if len(records) == 0 {
		writeError(w, r, http.StatusNotFound, "no record with agency serial "+serial)
		return
	}
	render.JSON(w, r, records)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.reports.LastReport()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "no completed run yet")
		return
	}
	render.JSON(w, r, rep)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.summary.Summary())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request completed",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
