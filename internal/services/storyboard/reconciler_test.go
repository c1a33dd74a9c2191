package storyboard

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
	storagebadger "github.com/showforge/showforge/internal/storage/badger"
)

func setupReconciler(t *testing.T) (*Reconciler, interfaces.StorageManager) {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := storagebadger.NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "test-db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := storagebadger.NewManagerWithDB(db, logger)
	return NewReconciler(manager.Scenes(), manager.RenderJobs(), logger), manager
}

func TestReplaceStoryboard_CreatesNormalizedScenes(t *testing.T) {
	r, _ := setupReconciler(t)
	ctx := context.Background()

	seed := int64(42)
	shots := []models.Shot{
		{Scene: 1, ShotIndex: 1, DurationSec: -5, Camera: "wide", PromptPositive: "castle"},
		{Scene: 1, ShotIndex: 2, DurationSec: 500, Seed: &seed, PromptPositive: "dragon"},
		{Scene: 2, ShotIndex: 1, DurationSec: 6, PromptPositive: "forest"},
	}

	scenes, err := r.ReplaceStoryboard(ctx, "ws_1", "show_1", "ep_1", shots)
	require.NoError(t, err)
	require.Len(t, scenes, 3)

	assert.Equal(t, models.MinSceneDuration, scenes[0].DurationSec)
	assert.Equal(t, models.MaxSceneDuration, scenes[1].DurationSec)
	assert.Equal(t, 6.0, scenes[2].DurationSec)

	require.NotNil(t, scenes[1].Seed)
	assert.Equal(t, int64(42), *scenes[1].Seed)
	assert.Nil(t, scenes[0].Seed)

	assert.Equal(t, 1001, scenes[0].SortOrder)
	assert.Equal(t, 1002, scenes[1].SortOrder)
	assert.Equal(t, 2001, scenes[2].SortOrder)
}

func TestReplaceStoryboard_MissingIndicesDefaultToPosition(t *testing.T) {
	r, _ := setupReconciler(t)
	ctx := context.Background()

	shots := []models.Shot{
		{PromptPositive: "a", DurationSec: 3},
		{PromptPositive: "b", DurationSec: 3},
	}

	scenes, err := r.ReplaceStoryboard(ctx, "ws_1", "show_1", "ep_1", shots)
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	assert.Equal(t, 1, scenes[0].SceneIndex)
	assert.Equal(t, 1, scenes[0].ShotIndex)
	assert.Equal(t, 1, scenes[1].SceneIndex)
	assert.Equal(t, 2, scenes[1].ShotIndex)
}

func TestReplaceStoryboard_ReplacesExisting(t *testing.T) {
	r, manager := setupReconciler(t)
	ctx := context.Background()

	first := []models.Shot{
		{Scene: 1, ShotIndex: 1, DurationSec: 4, PromptPositive: "old"},
		{Scene: 1, ShotIndex: 2, DurationSec: 4, PromptPositive: "old"},
	}
	_, err := r.ReplaceStoryboard(ctx, "ws_1", "show_1", "ep_1", first)
	require.NoError(t, err)

	second := []models.Shot{
		{Scene: 1, ShotIndex: 1, DurationSec: 4, PromptPositive: "new"},
	}
	_, err = r.ReplaceStoryboard(ctx, "ws_1", "show_1", "ep_1", second)
	require.NoError(t, err)

	scenes, err := manager.Scenes().GetScenesByEpisode(ctx, "ep_1")
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "new", scenes[0].PromptPositive)
}

func TestStoryboardRoundTrip(t *testing.T) {
	r, _ := setupReconciler(t)
	ctx := context.Background()

	seed := int64(7)
	shots := []models.Shot{
		{Scene: 1, ShotIndex: 1, DurationSec: 4.5, Camera: "close-up", Action: "hero speaks", Emotion: "calm", MusicMood: "soft piano", FocusCharacter: "Hero", Seed: &seed, PromptPositive: "hero portrait", PromptNegative: "blurry"},
		{Scene: 2, ShotIndex: 1, DurationSec: 8, Camera: "wide", Action: "battle", Emotion: "tense", PromptPositive: "battlefield"},
	}

	_, err := r.ReplaceStoryboard(ctx, "ws_1", "show_1", "ep_1", shots)
	require.NoError(t, err)

	got, err := r.CurrentStoryboard(ctx, "ep_1")
	require.NoError(t, err)
	assert.Equal(t, shots, got)
}

func TestResyncRenderJob(t *testing.T) {
	r, manager := setupReconciler(t)
	ctx := context.Background()

	// No render job yet is not an error
	require.NoError(t, r.ResyncRenderJob(ctx, "ep_1"))

	job := &models.RenderJob{
		ID:        common.NewRenderJobID(),
		EpisodeID: "ep_1",
		Status:    models.RenderJobStatusQueued,
	}
	require.NoError(t, manager.RenderJobs().StoreRenderJob(ctx, job))

	shots := []models.Shot{
		{Scene: 1, ShotIndex: 1, DurationSec: 4, PromptPositive: "updated"},
	}
	_, err := r.ReplaceStoryboard(ctx, "ws_1", "show_1", "ep_1", shots)
	require.NoError(t, err)
	require.NoError(t, r.ResyncRenderJob(ctx, "ep_1"))

	stored, err := manager.RenderJobs().GetRenderJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, stored.RenderSettings.Storyboard, 1)
	assert.Equal(t, "updated", stored.RenderSettings.Storyboard[0].PromptPositive)
}
