package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// JobHandler exposes the render queue and render job records
type JobHandler struct {
	storage interfaces.StorageManager
	queue   interfaces.RenderQueue
	events  interfaces.EventService
	logger  arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(storage interfaces.StorageManager, queue interfaces.RenderQueue, events interfaces.EventService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		storage: storage,
		queue:   queue,
		events:  events,
		logger:  logger,
	}
}

// StatsHandler handles GET /api/render/jobs
func (h *JobHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ActiveHandler handles GET /api/render/jobs/active
func (h *JobHandler) ActiveHandler(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, h.queue.GetActive)
}

// WaitingHandler handles GET /api/render/jobs/waiting
func (h *JobHandler) WaitingHandler(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, h.queue.GetWaiting)
}

// FailedHandler handles GET /api/render/jobs/failed
func (h *JobHandler) FailedHandler(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, h.queue.GetFailed)
}

func (h *JobHandler) listEntries(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*interfaces.QueueEntry, error)) {
	entries, err := list(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  entries,
		"count": len(entries),
	})
}

// GetHandler handles GET /api/render/jobs/{id} where id is the render
// job record id
func (h *JobHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	job, err := h.storage.RenderJobs().GetRenderJob(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// CancelHandler handles POST /api/render/jobs/{id}/cancel. Removing
// the queued message is best effort: a message already claimed by the
// dispatcher is gone from the waiting set, but the job record still
// flips to cancelled. A render already in flight may still finish and
// report back; its terminal callback is accepted and applied as usual.
func (h *JobHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.storage.RenderJobs().GetRenderJob(ctx, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if job.IsTerminal() {
		WriteError(w, common.Errorf(common.ErrConflict,
			"render job %s cannot be cancelled from status %s", job.ID, job.Status))
		return
	}

	if job.QueueJobID != "" {
		if err := h.queue.Remove(ctx, job.QueueJobID); err != nil {
			h.logger.Warn().Err(err).Str("queue_job_id", job.QueueJobID).Msg("Failed to remove queued render message")
		}
	}

	job.Status = models.RenderJobStatusCancelled
	job.QueueJobID = ""
	if err := h.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
		WriteError(w, err)
		return
	}

	episode, err := h.storage.Episodes().GetEpisode(ctx, job.EpisodeID)
	if err == nil && !episode.IsRenderSettled() {
		episode.Status = models.EpisodeStatusRenderFailed
		if err := h.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
			h.logger.Warn().Err(err).Str("episode_id", episode.ID).Msg("Failed to update episode after cancel")
		}
	}

	log := &models.PipelineLog{
		ID:        common.NewPipelineLogID(),
		EpisodeID: job.EpisodeID,
		Event:     models.LogEventCancelled,
		Message:   fmt.Sprintf("Render job %s cancelled", job.ID),
		CreatedAt: time.Now(),
	}
	if err := h.storage.PipelineLogs().AppendLog(ctx, log); err != nil {
		h.logger.Warn().Err(err).Str("episode_id", job.EpisodeID).Msg("Failed to append pipeline log")
	}

	h.events.Publish(ctx, interfaces.Event{Type: interfaces.EventRenderFailed, Payload: job})
	WriteJSON(w, http.StatusOK, job)
}
