package pipeline

import (
	"context"
	"errors"
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
	"github.com/showforge/showforge/internal/services/storyboard"
	storagebadger "github.com/showforge/showforge/internal/storage/badger"
)

// fakeGenerator returns canned content without talking to a provider
type fakeGenerator struct {
	failMoral  bool
	failScript bool
}

func (f *fakeGenerator) GenerateMoral(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	if f.failMoral {
		return "", common.Errorf(common.ErrUpstreamAI, "moral generation unavailable")
	}
	return "Honesty is the best policy", nil
}

func (f *fakeGenerator) GenerateTitle(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	return "The Honest Fox", nil
}

func (f *fakeGenerator) GenerateScript(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	if f.failScript {
		return "", common.Errorf(common.ErrUpstreamAI, "script generation unavailable")
	}
	return "NARRATOR: Once upon a time...", nil
}

func (f *fakeGenerator) GenerateSummary(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	return "A fox learns to tell the truth.", nil
}

func (f *fakeGenerator) GenerateStoryboard(ctx context.Context, gc *interfaces.GenerationContext) ([]models.Shot, error) {
	return []models.Shot{
		{Scene: 1, ShotIndex: 1, DurationSec: 5, PromptPositive: "fox in forest"},
		{Scene: 1, ShotIndex: 2, DurationSec: 7, PromptPositive: "fox confesses"},
	}, nil
}

func (f *fakeGenerator) ProviderName() string { return "fake" }

type pipelineFixture struct {
	service *Service
	storage interfaces.StorageManager
	queue   interfaces.RenderQueue
}

func setupPipeline(t *testing.T, gen interfaces.ContentGenerator) *pipelineFixture {
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

	eventService := events.NewService(logger)
	reconciler := storyboard.NewReconciler(manager.Scenes(), manager.RenderJobs(), logger)
	notifier := notify.NewService(manager.Workspaces(), eventService, logger)

	service := NewService(manager, gen, reconciler, renderQueue, eventService, notifier, logger)
	return &pipelineFixture{service: service, storage: manager, queue: renderQueue}
}

func seedShow(t *testing.T, fx *pipelineFixture, plan models.WorkspacePlan, quota, used int) (*models.Workspace, *models.Show) {
	t.Helper()
	ctx := context.Background()

	workspace := &models.Workspace{
		ID:                common.NewWorkspaceID(),
		Name:              "Test Workspace",
		Plan:              plan,
		EpisodesPerMonth:  quota,
		EpisodesThisMonth: used,
	}
	require.NoError(t, fx.storage.Workspaces().StoreWorkspace(ctx, workspace))

	show := &models.Show{
		ID:          common.NewShowID(),
		WorkspaceID: workspace.ID,
		Name:        "Fox Tales",
		Characters: []models.Character{
			{Name: "Fox", Active: true},
		},
	}
	require.NoError(t, fx.storage.Shows().StoreShow(ctx, show))

	return workspace, show
}

func TestGenerate_HappyPath(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{})
	ctx := context.Background()
	workspace, show := seedShow(t, fx, models.PlanStudio, 10, 0)

	episode, err := fx.service.Generate(ctx, workspace.ID, show.ID, "manual", nil)
	require.NoError(t, err)

	assert.Equal(t, models.EpisodeStatusRenderQueued, episode.Status)
	assert.Equal(t, 1, episode.Number)
	assert.Equal(t, "Honesty is the best policy", episode.Moral)
	assert.Equal(t, "The Honest Fox", episode.Title)
	assert.NotEmpty(t, episode.Script)
	assert.NotEmpty(t, episode.RenderJobID)

	// Scenes persisted
	scenes, err := fx.storage.Scenes().GetScenesByEpisode(ctx, episode.ID)
	require.NoError(t, err)
	assert.Len(t, scenes, 2)

	// Render job queued at the studio tier
	job, err := fx.storage.RenderJobs().GetRenderJob(ctx, episode.RenderJobID)
	require.NoError(t, err)
	assert.Equal(t, models.RenderJobStatusQueued, job.Status)
	assert.Equal(t, 3, job.Priority)
	assert.NotEmpty(t, job.QueueJobID)
	assert.Len(t, job.RenderSettings.Storyboard, 2)

	// Queue message present
	entry, _, _, err := fx.queue.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, episode.ID, entry.Message.EpisodeID)
	assert.Equal(t, job.ID, entry.Message.RenderJobID)

	// Monthly counter bumped
	ws, err := fx.storage.Workspaces().GetWorkspace(ctx, workspace.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ws.EpisodesThisMonth)

	// Moral recorded for novelty checks
	stored, err := fx.storage.Shows().GetShow(ctx, show.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.MoralsUsed, "Honesty is the best policy")

	// Pipeline ledger has created, script_ready, render_queued
	logs, err := fx.storage.PipelineLogs().GetLogsByEpisode(ctx, episode.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, models.LogEventCreated, logs[0].Event)
	assert.Equal(t, models.LogEventScriptReady, logs[1].Event)
	assert.Equal(t, models.LogEventRenderQueued, logs[2].Event)
}

func TestGenerate_QuotaExceededHasNoSideEffects(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{})
	ctx := context.Background()
	workspace, show := seedShow(t, fx, models.PlanStarter, 4, 4)

	_, err := fx.service.Generate(ctx, workspace.ID, show.ID, "manual", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExceeded))

	episodes, err := fx.storage.Episodes().GetEpisodesByShow(ctx, show.ID)
	require.NoError(t, err)
	assert.Empty(t, episodes)

	_, _, _, err = fx.queue.Receive(ctx)
	assert.ErrorIs(t, err, models.ErrNoMessage)
}

func TestGenerate_UnlimitedQuota(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{})
	ctx := context.Background()
	// Zero quota means unlimited
	workspace, show := seedShow(t, fx, models.PlanStudio, 0, 99)

	_, err := fx.service.Generate(ctx, workspace.ID, show.ID, "manual", nil)
	require.NoError(t, err)
}

func TestGenerate_WorkspaceMismatchForbidden(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{})
	ctx := context.Background()
	_, show := seedShow(t, fx, models.PlanPro, 10, 0)

	other := &models.Workspace{ID: common.NewWorkspaceID(), Name: "Other", Plan: models.PlanPro}
	require.NoError(t, fx.storage.Workspaces().StoreWorkspace(ctx, other))

	_, err := fx.service.Generate(ctx, other.ID, show.ID, "manual", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrForbidden))
}

func TestGenerate_AIFailureMarksEpisodeFailed(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{failScript: true})
	ctx := context.Background()
	workspace, show := seedShow(t, fx, models.PlanPro, 10, 0)

	_, err := fx.service.Generate(ctx, workspace.ID, show.ID, "manual", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamAI))

	// The episode row exists and records the failure
	episodes, err := fx.storage.Episodes().GetEpisodesByShow(ctx, show.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, models.EpisodeStatusRenderFailed, episodes[0].Status)

	// Nothing was queued and the quota was not consumed
	_, _, _, err = fx.queue.Receive(ctx)
	assert.ErrorIs(t, err, models.ErrNoMessage)

	ws, err := fx.storage.Workspaces().GetWorkspace(ctx, workspace.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ws.EpisodesThisMonth)
}

func TestGenerate_EpisodeNumbersIncrement(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{})
	ctx := context.Background()
	workspace, show := seedShow(t, fx, models.PlanStudio, 0, 0)

	first, err := fx.service.Generate(ctx, workspace.ID, show.ID, "manual", nil)
	require.NoError(t, err)
	second, err := fx.service.Generate(ctx, workspace.ID, show.ID, "scheduler", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "scheduler", second.TriggeredBy)
}

func TestGenerate_RenderSettingOverrides(t *testing.T) {
	fx := setupPipeline(t, &fakeGenerator{})
	ctx := context.Background()
	workspace, show := seedShow(t, fx, models.PlanStudio, 10, 0)

	episode, err := fx.service.Generate(ctx, workspace.ID, show.ID, "manual", map[string]interface{}{
		"music_enabled": false,
		"resolution":    "720x1280",
		"fade_style":    "cross",
	})
	require.NoError(t, err)

	job, err := fx.storage.RenderJobs().GetRenderJob(ctx, episode.RenderJobID)
	require.NoError(t, err)
	assert.False(t, job.RenderSettings.Production.MusicEnabled)
	assert.False(t, job.RenderSettings.Audio.MusicEnabled)
	assert.Equal(t, "720x1280", job.RenderSettings.Production.Resolution)
	assert.Equal(t, "cross", job.RenderSettings.Extra["fade_style"])
}
