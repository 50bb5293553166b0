package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jessemcg/Dog-Ear/internal/config"
	"github.com/jessemcg/Dog-Ear/internal/pattern"
	"github.com/jessemcg/Dog-Ear/internal/pipeline"
)

// Server is the HTTP API for the bookmark pipeline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	patternDiags []error
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. patternDiags are
// the load-time diagnostics for the pattern directory; they are kept
// so pattern authors can inspect them over the API.
func NewServer(orch *pipeline.Orchestrator, patternDiags []error, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		patternDiags: patternDiags,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/scan", s.handleScan)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/toc", s.handleGetTOC)
		r.Put("/api/jobs/{jobID}/toc", s.handlePutTOC)
		r.Post("/api/jobs/{jobID}/edits", s.handleEdits)
		r.Post("/api/jobs/{jobID}/hooks/{name}", s.handleRunHook)
		r.Post("/api/jobs/{jobID}/apply", s.handleApply)

		r.Get("/api/patterns", s.handlePatterns)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// groupSummary is the API shape for one loaded pattern group.
type groupSummary struct {
	Name     string `json:"name"`
	Patterns int    `json:"patterns"`
}

func summarizeGroups(groups []pattern.Group) []groupSummary {
	out := make([]groupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupSummary{Name: g.Name, Patterns: len(g.Patterns)})
	}
	return out
}
