// Package server exposes the training engine over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/checkin"
	"github.com/claude/topset/internal/cycle"
	"github.com/claude/topset/internal/ingest/alpha"
	"github.com/claude/topset/internal/integrity"
	"github.com/claude/topset/internal/journal"
	"github.com/claude/topset/internal/session"
)

// Deps bundles the services the HTTP handlers call into.
type Deps struct {
	Journal   *journal.Journal
	Catalog   *catalog.Catalog
	Sessions  *session.Manager
	Analyzer  *autoreg.Analyzer
	Cycle     *cycle.Scheduler
	Checkins  *checkin.Service
	Integrity *integrity.Scanner
	Alpha     *alpha.Provider
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	Deps
	log    *slog.Logger
	apiKey string
	whois  WhoIser
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		Deps:   deps,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution from the API key to tailnet
// WhoIs lookups.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// MountMCP serves an MCP transport at /mcp behind the same identity checks
// as the REST API.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/e1rm", s.handleEstimate)

		r.Get("/program", s.handleProgram)
		r.Get("/program/{dayID}", s.handleProgramDay)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleInstantiate)
			r.Get("/current", s.handleCurrent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDiscard)
				r.Post("/finalize", s.handleFinalize)
				r.Put("/context", s.handleContextFlags)
				r.Put("/notes", s.handleNotes)
				r.Post("/logs/{ex}/sets", s.handleAddSet)
				r.Delete("/logs/{ex}/sets", s.handleRemoveSet)
				r.Patch("/logs/{ex}/sets/{set}", s.handleUpdateSet)
				r.Post("/logs/{ex}/reduction", s.handleReduction)
			})
		})

		r.Get("/exercises", s.handleTracked)
		r.Route("/exercises/{exerciseID}", func(r chi.Router) {
			r.Get("/history", s.handleExerciseHistory)
			r.Get("/last-two", s.handleLastTwo)
			r.Get("/regression", s.handleRegression)
			r.Get("/progress", s.handleProgress)
		})

		r.Get("/cycle", s.handleCycleState)
		r.Post("/cycle/toggle", s.handleCycleToggle)
		r.Put("/cycle/week", s.handleCycleSetWeek)
		r.Post("/cycle/next", s.handleCycleNext)
		r.Post("/cycle/prev", s.handleCyclePrev)
		r.Post("/cycle/reset", s.handleCycleReset)

		r.Get("/checkins", s.handleListCheckins)
		r.Post("/checkins", s.handleSubmitCheckin)
		r.Get("/checkins/deload", s.handleNeedsDeload)

		r.Get("/integrity", s.handleIntegrityScan)
		r.Get("/backup", s.handleExport)

		// Destructive and bulk-write endpoints always need the API key.
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/integrity/repair", s.handleIntegrityRepair)
			r.Post("/backup", s.handleImport)
			r.Post("/ingest/alpha", s.handleAlphaIngest)
		})
	})
}
