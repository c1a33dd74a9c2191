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
	"github.com/showforge/showforge/internal/services/events"
	"github.com/showforge/showforge/internal/services/notify"
	storagebadger "github.com/showforge/showforge/internal/storage/badger"
)

const testSecret = "test-callback-secret"

func setupCallbackHandler(t *testing.T) (*CallbackHandler, interfaces.StorageManager) {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := storagebadger.NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "test-db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := storagebadger.NewManagerWithDB(db, logger)
	eventService := events.NewService(logger)
	notifier := notify.NewService(manager.Workspaces(), eventService, logger)

	return NewCallbackHandler(manager, eventService, notifier, testSecret, logger), manager
}

func seedRenderingEpisode(t *testing.T, storage interfaces.StorageManager) (*models.Episode, *models.RenderJob) {
	t.Helper()
	ctx := context.Background()

	episode := &models.Episode{
		ID:          common.NewEpisodeID(),
		WorkspaceID: "ws_1",
		ShowID:      "show_1",
		Number:      1,
		Status:      models.EpisodeStatusRendering,
	}
	require.NoError(t, storage.Episodes().StoreEpisode(ctx, episode))

	job := &models.RenderJob{
		ID:          common.NewRenderJobID(),
		EpisodeID:   episode.ID,
		WorkspaceID: episode.WorkspaceID,
		Status:      models.RenderJobStatusRunning,
		QueueJobID:  "queue-1",
	}
	require.NoError(t, storage.RenderJobs().StoreRenderJob(ctx, job))

	return episode, job
}

func postCallback(t *testing.T, handler http.HandlerFunc, payload interface{}, secret string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/callbacks/render/x", bytes.NewReader(body))
	if secret != "" {
		req.Header.Set(CallbackSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCallback_RejectsBadSecret(t *testing.T) {
	handler, _ := setupCallbackHandler(t)

	tests := []struct {
		name   string
		secret string
	}{
		{name: "missing secret", secret: ""},
		{name: "wrong secret", secret: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postCallback(t, handler.HandleProgress, map[string]string{"episode_id": "ep_x"}, tt.secret)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestCallback_Progress(t *testing.T) {
	handler, storage := setupCallbackHandler(t)
	ctx := context.Background()
	episode, job := seedRenderingEpisode(t, storage)

	rec := postCallback(t, handler.HandleProgress, map[string]interface{}{
		"episode_id":       episode.ID,
		"job_id":           "queue-1",
		"progress_percent": 40.0,
		"current_step":     "generating frames",
	}, testSecret)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	stored, err := storage.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, stored.ProgressPercent)
	assert.Equal(t, "generating frames", stored.CurrentStep)
}

func TestCallback_ProgressDoesNotRegressSettledEpisode(t *testing.T) {
	handler, storage := setupCallbackHandler(t)
	ctx := context.Background()
	episode, _ := seedRenderingEpisode(t, storage)

	episode.Status = models.EpisodeStatusAwaitingApproval
	require.NoError(t, storage.Episodes().StoreEpisode(ctx, episode))

	rec := postCallback(t, handler.HandleProgress, map[string]interface{}{
		"episode_id":       episode.ID,
		"progress_percent": 90.0,
	}, testSecret)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusAwaitingApproval, stored.Status)
}

func TestCallback_Complete(t *testing.T) {
	handler, storage := setupCallbackHandler(t)
	ctx := context.Background()
	episode, job := seedRenderingEpisode(t, storage)

	rec := postCallback(t, handler.HandleComplete, map[string]interface{}{
		"episode_id":       episode.ID,
		"output_url":       "https://cdn.example.com/ep1.mp4",
		"duration_seconds": 181.5,
	}, testSecret)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusAwaitingApproval, stored.Status)
	assert.Equal(t, "https://cdn.example.com/ep1.mp4", stored.OutputURL)
	assert.Equal(t, 181.5, stored.DurationSeconds)
	assert.NotNil(t, stored.RenderCompletedAt)

	storedJob, err := storage.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RenderJobStatusCompleted, storedJob.Status)
	assert.Equal(t, 100.0, storedJob.ProgressPercent)
}

func TestCallback_CompleteIsIdempotent(t *testing.T) {
	handler, storage := setupCallbackHandler(t)
	ctx := context.Background()
	episode, _ := seedRenderingEpisode(t, storage)

	payload := map[string]interface{}{
		"episode_id":       episode.ID,
		"output_url":       "https://cdn.example.com/ep1.mp4",
		"duration_seconds": 181.5,
	}

	for i := 0; i < 2; i++ {
		rec := postCallback(t, handler.HandleComplete, payload, testSecret)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	stored, err := storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusAwaitingApproval, stored.Status)

	// A duplicate completion must not add a second ledger entry
	logs, err := storage.PipelineLogs().GetLogsByEpisode(ctx, episode.ID)
	require.NoError(t, err)
	completions := 0
	for _, log := range logs {
		if log.Event == models.LogEventRenderCompleted {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestCallback_CompleteLeavesPublishedAlone(t *testing.T) {
	handler, storage := setupCallbackHandler(t)
	ctx := context.Background()
	episode, _ := seedRenderingEpisode(t, storage)

	episode.Status = models.EpisodeStatusPublished
	episode.OutputURL = "https://cdn.example.com/final.mp4"
	require.NoError(t, storage.Episodes().StoreEpisode(ctx, episode))

	rec := postCallback(t, handler.HandleComplete, map[string]interface{}{
		"episode_id": episode.ID,
		"output_url": "https://cdn.example.com/late.mp4",
	}, testSecret)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusPublished, stored.Status)
	assert.Equal(t, "https://cdn.example.com/final.mp4", stored.OutputURL)
}

func TestCallback_Failed(t *testing.T) {
	handler, storage := setupCallbackHandler(t)
	ctx := context.Background()
	episode, job := seedRenderingEpisode(t, storage)

	rec := postCallback(t, handler.HandleFailed, map[string]interface{}{
		"episode_id":    episode.ID,
		"error_message": "gpu worker crashed",
	}, testSecret)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusRenderFailed, stored.Status)

	storedJob, err := storage.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RenderJobStatusFailed, storedJob.Status)
	assert.Equal(t, "gpu worker crashed", storedJob.Error)
}

func TestCallback_UnknownEpisodeStillAcksOK(t *testing.T) {
	handler, _ := setupCallbackHandler(t)

	rec := postCallback(t, handler.HandleProgress, map[string]interface{}{
		"episode_id": "ep_missing",
	}, testSecret)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
