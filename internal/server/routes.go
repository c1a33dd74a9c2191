package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("GET /ws", s.app.WSHandler.ServeHTTP)

	// Episode pipeline
	mux.HandleFunc("POST /api/shows/{id}/generate", s.app.EpisodeHandler.GenerateHandler)
	mux.HandleFunc("GET /api/episodes", s.app.EpisodeHandler.ListHandler)
	mux.HandleFunc("GET /api/episodes/{id}", s.app.EpisodeHandler.GetHandler)
	mux.HandleFunc("GET /api/episodes/{id}/logs", s.app.EpisodeHandler.LogsHandler)
	mux.HandleFunc("POST /api/episodes/{id}/approve", s.app.EpisodeHandler.ApproveHandler)
	mux.HandleFunc("POST /api/episodes/{id}/reject", s.app.EpisodeHandler.RejectHandler)

	// Storyboard editing
	mux.HandleFunc("GET /api/episodes/{id}/scenes", s.app.SceneHandler.ListHandler)
	mux.HandleFunc("POST /api/episodes/{id}/scenes", s.app.SceneHandler.CreateHandler)
	mux.HandleFunc("PUT /api/scenes/{id}", s.app.SceneHandler.UpdateHandler)
	mux.HandleFunc("DELETE /api/scenes/{id}", s.app.SceneHandler.DeleteHandler)

	// Render queue
	mux.HandleFunc("GET /api/render/jobs", s.app.JobHandler.StatsHandler)
	mux.HandleFunc("GET /api/render/jobs/active", s.app.JobHandler.ActiveHandler)
	mux.HandleFunc("GET /api/render/jobs/waiting", s.app.JobHandler.WaitingHandler)
	mux.HandleFunc("GET /api/render/jobs/failed", s.app.JobHandler.FailedHandler)
	mux.HandleFunc("GET /api/render/jobs/{id}", s.app.JobHandler.GetHandler)
	mux.HandleFunc("POST /api/render/jobs/{id}/cancel", s.app.JobHandler.CancelHandler)

	// Render service callbacks
	mux.HandleFunc("POST /api/callbacks/render/progress", s.app.CallbackHandler.HandleProgress)
	mux.HandleFunc("POST /api/callbacks/render/complete", s.app.CallbackHandler.HandleComplete)
	mux.HandleFunc("POST /api/callbacks/render/failed", s.app.CallbackHandler.HandleFailed)

	// System
	mux.HandleFunc("GET /api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("GET /api/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("GET /api/scheduler/entries", s.app.StatusHandler.ScheduleHandler)

	return mux
}
