package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/modmap/internal/config"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/pipeline"
)

// Server is the HTTP API server for modmap.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	client       extract.Client
	stats        *extract.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, client extract.Client, stats *extract.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		client:       client,
		stats:        stats,
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

	// Authenticated endpoints. An empty key disables auth, for local use.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/parse", s.handleParse)

		r.Post("/api/jobs", s.handleCreateJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/result", s.handleJobResult)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
