package render

import (
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
	"github.com/showforge/showforge/internal/queue"
	"github.com/showforge/showforge/internal/services/events"
	"github.com/showforge/showforge/internal/services/notify"
	storagebadger "github.com/showforge/showforge/internal/storage/badger"
)

type dispatchFixture struct {
	dispatcher *Dispatcher
	storage    interfaces.StorageManager
	queue      interfaces.RenderQueue
}

func setupDispatcher(t *testing.T, serviceURL string) *dispatchFixture {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := storagebadger.NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "test-db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := storagebadger.NewManagerWithDB(db, logger)
	renderQueue, err := queue.NewBadgerQueue(db.Store().Badger(), queue.Options{QueueName: "test"}, logger)
	require.NoError(t, err)

	config := common.NewDefaultConfig()
	config.Render.ServiceURL = serviceURL
	config.Render.CallbackURL = "http://showforge.local:8080"
	config.Render.CallbackSecret = "secret"

	eventService := events.NewService(logger)
	notifier := notify.NewService(manager.Workspaces(), eventService, logger)
	client := NewClient(&config.Render, logger)
	dispatcher := NewDispatcher(manager, renderQueue, client, notifier, config, logger)

	return &dispatchFixture{dispatcher: dispatcher, storage: manager, queue: renderQueue}
}

func seedQueuedRender(t *testing.T, fx *dispatchFixture) (*models.Episode, *models.RenderJob, *interfaces.QueueEntry) {
	t.Helper()
	ctx := context.Background()

	show := &models.Show{
		ID:          "show_1",
		WorkspaceID: "ws_1",
		Name:        "Fox Tales",
		Characters: []models.Character{
			{Name: "Fox", Active: true, Voice: "narrator-a", EmotionRefs: map[string]string{"happy": "https://refs/happy.png"}},
		},
	}
	require.NoError(t, fx.storage.Shows().StoreShow(ctx, show))

	episode := &models.Episode{
		ID:          common.NewEpisodeID(),
		WorkspaceID: "ws_1",
		ShowID:      show.ID,
		Number:      1,
		Title:       "The Honest Fox",
		Script:      "NARRATOR: ...",
		Status:      models.EpisodeStatusRenderQueued,
	}
	require.NoError(t, fx.storage.Episodes().StoreEpisode(ctx, episode))

	job := &models.RenderJob{
		ID:          common.NewRenderJobID(),
		EpisodeID:   episode.ID,
		WorkspaceID: "ws_1",
		Status:      models.RenderJobStatusQueued,
		RenderSettings: models.RenderSettings{
			Version: models.RenderSettingsVersion,
			Storyboard: []models.Shot{
				{Scene: 1, ShotIndex: 1, DurationSec: 5, PromptPositive: "fox"},
			},
		},
	}
	require.NoError(t, fx.storage.RenderJobs().StoreRenderJob(ctx, job))

	queueJobID, err := fx.queue.Enqueue(ctx, &models.RenderQueueMessage{
		EpisodeID:   episode.ID,
		WorkspaceID: "ws_1",
		ShowID:      show.ID,
		RenderJobID: job.ID,
	}, 2)
	require.NoError(t, err)

	job.QueueJobID = queueJobID
	require.NoError(t, fx.storage.RenderJobs().StoreRenderJob(ctx, job))

	entry, _, _, err := fx.queue.Receive(ctx)
	require.NoError(t, err)
	return episode, job, entry
}

func TestProcess_DispatchesAndMarksRendering(t *testing.T) {
	var received DispatchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/render", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	fx := setupDispatcher(t, server.URL)
	ctx := context.Background()
	episode, job, entry := seedQueuedRender(t, fx)

	require.NoError(t, fx.dispatcher.Process(ctx, entry))

	assert.Equal(t, episode.ID, received.EpisodeID)
	assert.Equal(t, "Fox Tales", received.ShowName)
	assert.Equal(t, "http://showforge.local:8080/api/callbacks/render", received.CallbackURL)
	assert.Equal(t, "secret", received.CallbackSecret)
	require.Len(t, received.Characters, 1)
	assert.Equal(t, "Fox", received.Characters[0].Name)
	require.Len(t, received.Storyboard, 1)

	stored, err := fx.storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusRendering, stored.Status)
	assert.NotNil(t, stored.RenderStartedAt)

	storedJob, err := fx.storage.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RenderJobStatusRunning, storedJob.Status)
	assert.Equal(t, entry.ID, storedJob.QueueJobID)
}

func TestProcess_ServiceErrorMarksFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render farm offline", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	fx := setupDispatcher(t, server.URL)
	ctx := context.Background()
	episode, job, entry := seedQueuedRender(t, fx)

	err := fx.dispatcher.Process(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamRender)

	stored, err := fx.storage.Episodes().GetEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeStatusRenderFailed, stored.Status)

	storedJob, err := fx.storage.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RenderJobStatusFailed, storedJob.Status)
	assert.Contains(t, storedJob.Error, "render farm offline")
}

func TestProcess_MissingServiceURLFails(t *testing.T) {
	fx := setupDispatcher(t, "")
	ctx := context.Background()
	_, _, entry := seedQueuedRender(t, fx)

	err := fx.dispatcher.Process(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamRender)
}

func TestBuildCharacterBundles_ActiveOnly(t *testing.T) {
	show := &models.Show{
		Characters: []models.Character{
			{Name: "Fox", Active: true, EmotionRefs: map[string]string{"happy": "u1", "sad": "u2"}},
			{Name: "Owl", Active: false},
		},
	}

	bundles := BuildCharacterBundles(show)
	require.Len(t, bundles, 1)
	assert.Equal(t, "Fox", bundles[0].Name)
	assert.Len(t, bundles[0].EmotionRefs, 2)
}
