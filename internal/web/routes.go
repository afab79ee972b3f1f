package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/web/handlers"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes(deps Deps) {
	enrollHandler := handlers.NewEnrollHandler(deps.Encoder, deps.Enroll)
	recognizeHandler := handlers.NewRecognizeHandler(deps.Encoder, deps.Matcher, deps.Recorder)
	analyzeHandler := handlers.NewAnalyzeHandler(deps.Store, deps.Log, s.config.Workday)
	rosterHandler := handlers.NewRosterHandler(deps.Store)
	eventsHandler := handlers.NewEventsHandler(deps.Log)
	statsHandler := handlers.NewStatsHandler(deps.Store, deps.Log, deps.Matcher)
	refreshHandler := handlers.NewRefreshHandler(deps.Store, deps.Log, deps.Matcher)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		r.Post("/register", enrollHandler.Register)
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Post("/analyze", analyzeHandler.Analyze)

		r.Get("/roster", rosterHandler.List)
		r.Get("/events", eventsHandler.List)
		r.Get("/stats", statsHandler.Stats)
		r.Post("/refresh", refreshHandler.Refresh)
	})
}
