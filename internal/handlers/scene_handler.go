package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
	"github.com/showforge/showforge/internal/services/storyboard"
)

// SceneHandler serves the storyboard editing surface. Every mutation
// re-normalizes the scene and pushes the rebuilt shot list into the
// episode's pending render job so a later dispatch picks up the edit.
type SceneHandler struct {
	storage    interfaces.StorageManager
	reconciler *storyboard.Reconciler
	validate   *validator.Validate
	logger     arbor.ILogger
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(storage interfaces.StorageManager, reconciler *storyboard.Reconciler, logger arbor.ILogger) *SceneHandler {
	return &SceneHandler{
		storage:    storage,
		reconciler: reconciler,
		validate:   validator.New(),
		logger:     logger,
	}
}

// ListHandler handles GET /api/episodes/{id}/scenes
func (h *SceneHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.storage.Scenes().GetScenesByEpisode(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scenes": scenes,
		"count":  len(scenes),
	})
}

// CreateHandler handles POST /api/episodes/{id}/scenes
func (h *SceneHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	episodeID := r.PathValue("id")

	episode, err := h.storage.Episodes().GetEpisode(ctx, episodeID)
	if err != nil {
		WriteError(w, err)
		return
	}

	var scene models.Scene
	if err := DecodeJSON(r, &scene); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.validate.Struct(&scene); err != nil {
		WriteError(w, common.WrapError(common.ErrValidation, "invalid scene payload", err))
		return
	}

	scene.ID = common.NewSceneID()
	scene.EpisodeID = episode.ID
	scene.WorkspaceID = episode.WorkspaceID
	scene.ShowID = episode.ShowID
	scene.CreatedAt = time.Now()
	scene.Normalize()
	if scene.SortOrder == 0 {
		scene.SortOrder = models.DefaultSortOrder(scene.SceneIndex, scene.ShotIndex)
	}

	if err := h.storage.Scenes().StoreScene(ctx, &scene); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.reconciler.ResyncRenderJob(ctx, episodeID); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, &scene)
}

// UpdateHandler handles PUT /api/scenes/{id}
func (h *SceneHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, err := h.storage.Scenes().GetScene(ctx, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var scene models.Scene
	if err := DecodeJSON(r, &scene); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.validate.Struct(&scene); err != nil {
		WriteError(w, common.WrapError(common.ErrValidation, "invalid scene payload", err))
		return
	}

	// Identity and lineage are not editable
	scene.ID = existing.ID
	scene.EpisodeID = existing.EpisodeID
	scene.WorkspaceID = existing.WorkspaceID
	scene.ShowID = existing.ShowID
	scene.CreatedAt = existing.CreatedAt
	scene.UpdatedAt = time.Now()
	scene.Normalize()
	if scene.SortOrder == 0 {
		scene.SortOrder = models.DefaultSortOrder(scene.SceneIndex, scene.ShotIndex)
	}

	if err := h.storage.Scenes().StoreScene(ctx, &scene); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.reconciler.ResyncRenderJob(ctx, scene.EpisodeID); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, &scene)
}

// DeleteHandler handles DELETE /api/scenes/{id}
func (h *SceneHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scene, err := h.storage.Scenes().GetScene(ctx, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.storage.Scenes().DeleteScene(ctx, scene.ID); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.reconciler.ResyncRenderJob(ctx, scene.EpisodeID); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"id":     scene.ID,
	})
}
