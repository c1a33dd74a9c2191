package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// CallbackSecretHeader carries the shared secret on inbound render callbacks
const CallbackSecretHeader = "X-Render-Secret"

// CallbackHandler reconciles asynchronous render service callbacks into
// Episode/RenderJob/PipelineLog state. Callbacks may arrive out of
// order or duplicated; every handler is an idempotent upsert. Internal
// handling errors never surface to the caller (the response stays
// 200 {"ok":true}) so the render service is not driven into retry
// storms; failures are logged server-side instead.
type CallbackHandler struct {
	storage  interfaces.StorageManager
	events   interfaces.EventService
	notifier interfaces.NotifierService
	secret   string
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(storage interfaces.StorageManager, events interfaces.EventService, notifier interfaces.NotifierService, secret string, logger arbor.ILogger) *CallbackHandler {
	return &CallbackHandler{
		storage:  storage,
		events:   events,
		notifier: notifier,
		secret:   secret,
		validate: validator.New(),
		logger:   logger,
	}
}

type progressCallback struct {
	EpisodeID       string  `json:"episode_id" validate:"required"`
	JobID           string  `json:"job_id"`
	ProgressPercent float64 `json:"progress_percent"`
	CurrentStep     string  `json:"current_step"`
}

type completeCallback struct {
	EpisodeID       string  `json:"episode_id" validate:"required"`
	OutputURL       string  `json:"output_url" validate:"required"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type failedCallback struct {
	EpisodeID    string `json:"episode_id" validate:"required"`
	ErrorMessage string `json:"error_message"`
}

// authorize performs a constant-time shared-secret comparison. On
// mismatch the caller gets a bare 403 with no retry guidance.
func (h *CallbackHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	provided := r.Header.Get(CallbackSecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.logger.Warn().Str("path", r.URL.Path).Msg("Render callback rejected: bad secret")
		WriteErrorMessage(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// ok writes the fixed callback acknowledgement
func (h *CallbackHandler) ok(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleProgress processes POST /api/callbacks/render/progress
func (h *CallbackHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var payload progressCallback
	if err := DecodeJSON(r, &payload); err != nil {
		h.logger.Warn().Err(err).Msg("Progress callback body unreadable")
		h.ok(w)
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("Progress callback payload invalid")
		h.ok(w)
		return
	}

	if err := h.applyProgress(r.Context(), &payload); err != nil {
		h.logger.Error().Err(err).Str("episode_id", payload.EpisodeID).Msg("Progress callback handling failed")
	}
	h.ok(w)
}

func (h *CallbackHandler) applyProgress(ctx context.Context, payload *progressCallback) error {
	episode, err := h.storage.Episodes().GetEpisode(ctx, payload.EpisodeID)
	if err != nil {
		return err
	}

	// A late progress callback must not regress a settled episode
	if !episode.IsRenderSettled() && episode.Status != models.EpisodeStatusRendering {
		episode.Status = models.EpisodeStatusRendering
		if err := h.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
			return err
		}
	}

	job, err := h.matchJob(ctx, payload.JobID, payload.EpisodeID)
	if err != nil {
		return err
	}
	// Last write wins, including non-monotonic percent values
	job.ProgressPercent = payload.ProgressPercent
	job.CurrentStep = payload.CurrentStep
	if err := h.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
		return err
	}

	h.appendLog(ctx, episode.ID, models.LogEventRenderProgress,
		fmt.Sprintf("Render %d%%: %s", int(payload.ProgressPercent), payload.CurrentStep),
		map[string]interface{}{"progress_percent": payload.ProgressPercent, "current_step": payload.CurrentStep})

	h.events.Publish(ctx, interfaces.Event{Type: interfaces.EventRenderProgress, Payload: map[string]interface{}{
		"episode_id":       episode.ID,
		"progress_percent": payload.ProgressPercent,
		"current_step":     payload.CurrentStep,
	}})
	return nil
}

// HandleComplete processes POST /api/callbacks/render/complete
func (h *CallbackHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var payload completeCallback
	if err := DecodeJSON(r, &payload); err != nil {
		h.logger.Warn().Err(err).Msg("Complete callback body unreadable")
		h.ok(w)
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("Complete callback payload invalid")
		h.ok(w)
		return
	}

	if err := h.applyComplete(r.Context(), &payload); err != nil {
		h.logger.Error().Err(err).Str("episode_id", payload.EpisodeID).Msg("Complete callback handling failed")
	}
	h.ok(w)
}

func (h *CallbackHandler) applyComplete(ctx context.Context, payload *completeCallback) error {
	episode, err := h.storage.Episodes().GetEpisode(ctx, payload.EpisodeID)
	if err != nil {
		return err
	}

	alreadyComplete := episode.Status == models.EpisodeStatusAwaitingApproval && episode.OutputURL == payload.OutputURL

	// Idempotent terminal apply: a duplicate completion re-applies the
	// same fields without error. Approval states are left alone.
	if !episode.IsTerminal() {
		now := time.Now()
		episode.Status = models.EpisodeStatusAwaitingApproval
		episode.OutputURL = payload.OutputURL
		episode.DurationSeconds = payload.DurationSeconds
		if episode.RenderCompletedAt == nil {
			episode.RenderCompletedAt = &now
		}
		if err := h.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
			return err
		}
	}

	if job, err := h.matchJob(ctx, "", payload.EpisodeID); err == nil {
		job.Status = models.RenderJobStatusCompleted
		job.ProgressPercent = 100
		job.CurrentStep = "complete"
		if err := h.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
			return err
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	if !alreadyComplete {
		h.appendLog(ctx, episode.ID, models.LogEventRenderCompleted,
			fmt.Sprintf("Render complete: %s (%.1fs)", payload.OutputURL, payload.DurationSeconds),
			map[string]interface{}{"output_url": payload.OutputURL, "duration_seconds": payload.DurationSeconds})
		h.notifier.AwaitingApproval(ctx, episode)
	}
	return nil
}

// HandleFailed processes POST /api/callbacks/render/failed
func (h *CallbackHandler) HandleFailed(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var payload failedCallback
	if err := DecodeJSON(r, &payload); err != nil {
		h.logger.Warn().Err(err).Msg("Failed callback body unreadable")
		h.ok(w)
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("Failed callback payload invalid")
		h.ok(w)
		return
	}

	if err := h.applyFailed(r.Context(), &payload); err != nil {
		h.logger.Error().Err(err).Str("episode_id", payload.EpisodeID).Msg("Failed callback handling failed")
	}
	h.ok(w)
}

func (h *CallbackHandler) applyFailed(ctx context.Context, payload *failedCallback) error {
	episode, err := h.storage.Episodes().GetEpisode(ctx, payload.EpisodeID)
	if err != nil {
		return err
	}

	if !episode.IsTerminal() {
		episode.Status = models.EpisodeStatusRenderFailed
		if err := h.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
			return err
		}
	}

	if job, err := h.matchJob(ctx, "", payload.EpisodeID); err == nil {
		job.Status = models.RenderJobStatusFailed
		job.Error = payload.ErrorMessage
		if err := h.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
			return err
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	h.appendLog(ctx, episode.ID, models.LogEventRenderFailed,
		fmt.Sprintf("Render failed: %s", payload.ErrorMessage), nil)
	h.notifier.RenderFailed(ctx, episode, payload.ErrorMessage)
	return nil
}

// matchJob resolves the render job a callback refers to: by queue job
// id when one is supplied, else the latest job for the episode.
func (h *CallbackHandler) matchJob(ctx context.Context, queueJobID, episodeID string) (*models.RenderJob, error) {
	if queueJobID != "" {
		if job, err := h.storage.RenderJobs().GetRenderJobByQueueJobID(ctx, queueJobID); err == nil {
			return job, nil
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}
	return h.storage.RenderJobs().GetLatestRenderJobForEpisode(ctx, episodeID)
}

func (h *CallbackHandler) appendLog(ctx context.Context, episodeID, event, message string, metadata map[string]interface{}) {
	entry := &models.PipelineLog{
		EpisodeID: episodeID,
		Event:     event,
		Message:   message,
		Metadata:  metadata,
	}
	if err := h.storage.PipelineLogs().AppendLog(ctx, entry); err != nil {
		h.logger.Warn().Err(err).Str("episode_id", episodeID).Str("event", event).Msg("Failed to append callback log")
	}
}
