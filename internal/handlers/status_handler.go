package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
)

// StatusHandler serves health, version, and scheduler introspection
type StatusHandler struct {
	config    *common.Config
	scheduler interfaces.SchedulerService
	startedAt time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(config *common.Config, scheduler interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		config:    config,
		scheduler: scheduler,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// HealthHandler handles GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"environment": h.config.Environment,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// ScheduleHandler handles GET /api/scheduler/entries
func (h *StatusHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
			"entries": []interfaces.ScheduleEntry{},
		})
		return
	}

	entries := h.scheduler.Entries()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": true,
		"entries": entries,
		"count":   len(entries),
	})
}
