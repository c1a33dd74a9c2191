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

// EpisodeHandler serves episode triggers, queries, and the approval flow
type EpisodeHandler struct {
	storage     interfaces.StorageManager
	pipeline    interfaces.PipelineService
	events      interfaces.EventService
	autoPublish bool
	logger      arbor.ILogger
}

// NewEpisodeHandler creates a new episode handler
func NewEpisodeHandler(storage interfaces.StorageManager, pipeline interfaces.PipelineService, events interfaces.EventService, autoPublish bool, logger arbor.ILogger) *EpisodeHandler {
	return &EpisodeHandler{
		storage:     storage,
		pipeline:    pipeline,
		events:      events,
		autoPublish: autoPublish,
		logger:      logger,
	}
}

// GenerateHandler handles POST /api/shows/{id}/generate. The optional
// body carries render setting overrides applied to this episode only.
func (h *EpisodeHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	showID := r.PathValue("id")

	show, err := h.storage.Shows().GetShow(r.Context(), showID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var body struct {
		RenderSettings map[string]interface{} `json:"render_settings"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := DecodeJSON(r, &body); err != nil {
			WriteError(w, err)
			return
		}
	}

	episode, err := h.pipeline.Generate(r.Context(), show.WorkspaceID, showID, "manual", body.RenderSettings)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, episode)
}

// ListHandler handles GET /api/episodes with optional show_id or
// workspace_id filters
func (h *EpisodeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var (
		episodes []*models.Episode
		err      error
	)

	switch {
	case r.URL.Query().Get("show_id") != "":
		episodes, err = h.storage.Episodes().GetEpisodesByShow(r.Context(), r.URL.Query().Get("show_id"))
	case r.URL.Query().Get("workspace_id") != "":
		episodes, err = h.storage.Episodes().GetEpisodesByWorkspace(r.Context(), r.URL.Query().Get("workspace_id"))
	default:
		err = common.Errorf(common.ErrValidation, "show_id or workspace_id query parameter is required")
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"episodes": episodes,
		"count":    len(episodes),
	})
}

// GetHandler handles GET /api/episodes/{id}
func (h *EpisodeHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	episode, err := h.storage.Episodes().GetEpisode(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, episode)
}

// LogsHandler handles GET /api/episodes/{id}/logs
func (h *EpisodeHandler) LogsHandler(w http.ResponseWriter, r *http.Request) {
	logs, err := h.storage.PipelineLogs().GetLogsByEpisode(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// ApproveHandler handles POST /api/episodes/{id}/approve. Only valid
// from awaiting_approval. With auto-publish on (the default policy)
// the episode goes straight to published with two ledger events.
func (h *EpisodeHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	episode, err := h.storage.Episodes().GetEpisode(ctx, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if episode.Status != models.EpisodeStatusAwaitingApproval {
		WriteError(w, common.Errorf(common.ErrConflict,
			"episode %s cannot be approved from status %s", episode.ID, episode.Status))
		return
	}

	h.appendLog(ctx, episode.ID, models.LogEventApproved, fmt.Sprintf("Episode %d approved", episode.Number))

	if h.autoPublish {
		episode.Status = models.EpisodeStatusPublished
		h.appendLog(ctx, episode.ID, models.LogEventPublished, fmt.Sprintf("Episode %d published", episode.Number))
	}

	if err := h.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		WriteError(w, err)
		return
	}

	h.events.Publish(ctx, interfaces.Event{Type: interfaces.EventEpisodePublished, Payload: episode})
	WriteJSON(w, http.StatusOK, episode)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectHandler handles POST /api/episodes/{id}/reject. Terminal; no
// automatic retry.
func (h *EpisodeHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	episode, err := h.storage.Episodes().GetEpisode(ctx, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if episode.Status != models.EpisodeStatusAwaitingApproval {
		WriteError(w, common.Errorf(common.ErrConflict,
			"episode %s cannot be rejected from status %s", episode.ID, episode.Status))
		return
	}

	var payload rejectRequest
	if err := DecodeJSON(r, &payload); err != nil {
		WriteError(w, err)
		return
	}

	episode.Status = models.EpisodeStatusRejected
	episode.RejectReason = payload.Reason
	if err := h.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		WriteError(w, err)
		return
	}

	h.appendLog(ctx, episode.ID, models.LogEventRejected, fmt.Sprintf("Episode %d rejected: %s", episode.Number, payload.Reason))
	h.events.Publish(ctx, interfaces.Event{Type: interfaces.EventEpisodeRejected, Payload: episode})

	WriteJSON(w, http.StatusOK, episode)
}

func (h *EpisodeHandler) appendLog(ctx context.Context, episodeID, event, message string) {
	log := &models.PipelineLog{
		ID:        common.NewPipelineLogID(),
		EpisodeID: episodeID,
		Event:     event,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := h.storage.PipelineLogs().AppendLog(ctx, log); err != nil {
		h.logger.Warn().Err(err).Str("episode_id", episodeID).Msg("Failed to append pipeline log")
	}
}
