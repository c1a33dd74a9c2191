package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
	"github.com/showforge/showforge/internal/services/storyboard"
	storagebadger "github.com/showforge/showforge/internal/storage/badger"
)

func setupSceneHandler(t *testing.T) (*SceneHandler, interfaces.StorageManager) {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := storagebadger.NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "test-db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := storagebadger.NewManagerWithDB(db, logger)
	reconciler := storyboard.NewReconciler(manager.Scenes(), manager.RenderJobs(), logger)

	return NewSceneHandler(manager, reconciler, logger), manager
}

func seedSceneEpisode(t *testing.T, storage interfaces.StorageManager) *models.Episode {
	t.Helper()

	episode := &models.Episode{
		ID:          common.NewEpisodeID(),
		WorkspaceID: "ws_1",
		ShowID:      "show_1",
		Number:      1,
		Status:      models.EpisodeStatusScriptReady,
	}
	require.NoError(t, storage.Episodes().StoreEpisode(context.Background(), episode))
	return episode
}

func TestCreateScene(t *testing.T) {
	handler, storage := setupSceneHandler(t)
	ctx := context.Background()
	episode := seedSceneEpisode(t, storage)

	body := `{"scene_index":2,"shot_index":1,"duration_sec":4.5,"prompt_positive":"fox by the river"}`
	req := httptest.NewRequest(http.MethodPost, "/api/episodes/"+episode.ID+"/scenes", bytes.NewReader([]byte(body)))
	req.SetPathValue("id", episode.ID)
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, episode.ID, created.EpisodeID)
	assert.Equal(t, episode.WorkspaceID, created.WorkspaceID)
	assert.Equal(t, episode.ShowID, created.ShowID)
	assert.Equal(t, 2001, created.SortOrder)

	scenes, err := storage.Scenes().GetScenesByEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Len(t, scenes, 1)
}

func TestCreateScene_SortOrderOverridePreserved(t *testing.T) {
	handler, storage := setupSceneHandler(t)
	ctx := context.Background()
	episode := seedSceneEpisode(t, storage)

	body := `{"scene_index":2,"shot_index":3,"sort_order":50,"prompt_positive":"fox"}`
	req := httptest.NewRequest(http.MethodPost, "/api/episodes/"+episode.ID+"/scenes", bytes.NewReader([]byte(body)))
	req.SetPathValue("id", episode.ID)
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 50, created.SortOrder)

	// An update without sort_order falls back to the computed default
	update := `{"scene_index":2,"shot_index":3,"prompt_positive":"fox at dawn"}`
	upReq := httptest.NewRequest(http.MethodPut, "/api/scenes/"+created.ID, bytes.NewReader([]byte(update)))
	upReq.SetPathValue("id", created.ID)
	upRec := httptest.NewRecorder()
	handler.UpdateHandler(upRec, upReq)

	require.Equal(t, http.StatusOK, upRec.Code)

	updated, err := storage.Scenes().GetScene(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2003, updated.SortOrder)
}

func TestCreateScene_MissingPromptRejected(t *testing.T) {
	handler, storage := setupSceneHandler(t)
	episode := seedSceneEpisode(t, storage)

	body := `{"scene_index":1,"shot_index":1,"duration_sec":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/episodes/"+episode.ID+"/scenes", bytes.NewReader([]byte(body)))
	req.SetPathValue("id", episode.ID)
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateScene_UnknownEpisode(t *testing.T) {
	handler, _ := setupSceneHandler(t)

	body := `{"scene_index":1,"shot_index":1,"prompt_positive":"fox"}`
	req := httptest.NewRequest(http.MethodPost, "/api/episodes/ep_missing/scenes", bytes.NewReader([]byte(body)))
	req.SetPathValue("id", "ep_missing")
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateScene_PreservesIdentityAndResyncsJob(t *testing.T) {
	handler, storage := setupSceneHandler(t)
	ctx := context.Background()
	episode := seedSceneEpisode(t, storage)

	scene := &models.Scene{
		ID:             common.NewSceneID(),
		EpisodeID:      episode.ID,
		WorkspaceID:    episode.WorkspaceID,
		ShowID:         episode.ShowID,
		SceneIndex:     1,
		ShotIndex:      1,
		SortOrder:      1001,
		DurationSec:    5,
		PromptPositive: "fox",
	}
	require.NoError(t, storage.Scenes().StoreScene(ctx, scene))

	job := &models.RenderJob{
		ID:          common.NewRenderJobID(),
		EpisodeID:   episode.ID,
		WorkspaceID: episode.WorkspaceID,
		Status:      models.RenderJobStatusQueued,
	}
	require.NoError(t, storage.RenderJobs().StoreRenderJob(ctx, job))

	body := `{"id":"sc_spoofed","episode_id":"ep_spoofed","scene_index":1,"shot_index":1,"duration_sec":900,"prompt_positive":"fox at night"}`
	req := httptest.NewRequest(http.MethodPut, "/api/scenes/"+scene.ID, bytes.NewReader([]byte(body)))
	req.SetPathValue("id", scene.ID)
	rec := httptest.NewRecorder()
	handler.UpdateHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	updated, err := storage.Scenes().GetScene(ctx, scene.ID)
	require.NoError(t, err)
	assert.Equal(t, scene.ID, updated.ID)
	assert.Equal(t, episode.ID, updated.EpisodeID)
	assert.Equal(t, "fox at night", updated.PromptPositive)
	assert.Equal(t, models.MaxSceneDuration, updated.DurationSec)

	storedJob, err := storage.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, storedJob.RenderSettings.Storyboard, 1)
	assert.Equal(t, "fox at night", storedJob.RenderSettings.Storyboard[0].PromptPositive)
}

func TestDeleteScene(t *testing.T) {
	handler, storage := setupSceneHandler(t)
	ctx := context.Background()
	episode := seedSceneEpisode(t, storage)

	scene := &models.Scene{
		ID:             common.NewSceneID(),
		EpisodeID:      episode.ID,
		SceneIndex:     1,
		ShotIndex:      1,
		PromptPositive: "fox",
	}
	require.NoError(t, storage.Scenes().StoreScene(ctx, scene))

	req := httptest.NewRequest(http.MethodDelete, "/api/scenes/"+scene.ID, nil)
	req.SetPathValue("id", scene.ID)
	rec := httptest.NewRecorder()
	handler.DeleteHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	scenes, err := storage.Scenes().GetScenesByEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Empty(t, scenes)
}
