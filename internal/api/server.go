package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/bestiary/internal/config"
	"github.com/dgallion1/bestiary/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RecordStore is the read side of the output sink. *pathstore.Client
// implements it.
type RecordStore interface {
	ListRecords(ctx context.Context, limit int) ([]string, error)
	GetRecord(ctx context.Context, slug string) (json.RawMessage, error)
	DeleteRecord(ctx context.Context, slug string) error
}

// Server is the HTTP API server for bestiary.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	records      RecordStore
	metrics      http.Handler
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. records may be nil
// when no sink is configured; the record routes then answer 503. A nil
// metrics handler leaves /metrics unrouted.
func NewServer(orch *pipeline.Orchestrator, records RecordStore, metrics http.Handler, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		records:      records,
		metrics:      metrics,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/batch", s.handleBatch)
		r.Get("/api/batch/{jobID}/status", s.handleBatchStatus)
		r.Get("/api/batch/{jobID}/records", s.handleBatchRecords)
		r.Get("/api/stats/parse", s.handleParseStats)

		r.Get("/api/records", s.handleListRecords)
		r.Get("/api/records/{slug}", s.handleGetRecord)
		r.Delete("/api/records/{slug}", s.handleDeleteRecord)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
