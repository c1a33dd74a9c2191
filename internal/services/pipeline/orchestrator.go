package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
	"github.com/showforge/showforge/internal/services/storyboard"
)

// Service is the top-level episode generation state machine. It
// sequences the AI calls, persists their results, and transitions
// episode status. Every trigger path (HTTP route, scheduler) calls
// Generate.
type Service struct {
	storage    interfaces.StorageManager
	generator  interfaces.ContentGenerator
	reconciler *storyboard.Reconciler
	queue      interfaces.RenderQueue
	events     interfaces.EventService
	notifier   interfaces.NotifierService
	logger     arbor.ILogger
}

// NewService creates a new pipeline orchestrator
func NewService(
	storage interfaces.StorageManager,
	gen interfaces.ContentGenerator,
	reconciler *storyboard.Reconciler,
	queue interfaces.RenderQueue,
	events interfaces.EventService,
	notifier interfaces.NotifierService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:    storage,
		generator:  gen,
		reconciler: reconciler,
		queue:      queue,
		events:     events,
		notifier:   notifier,
		logger:     logger,
	}
}

// Generate produces the next episode for a show. The AI steps run
// strictly in sequence because each consumes the previous output.
// Any failure after episode creation marks the episode render_failed
// and returns the error; nothing is retried here. Queue-level retries
// cover dispatch, human re-trigger covers generation.
func (s *Service) Generate(ctx context.Context, workspaceID, showID, triggeredBy string, overrides map[string]interface{}) (*models.Episode, error) {
	// Quota precheck. Must fail before any side effects.
	workspace, err := s.storage.Workspaces().GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace.QuotaExhausted() {
		return nil, common.Errorf(common.ErrQuotaExceeded,
			"workspace %s has used %d of %d episodes this month (plan %s)",
			workspace.ID, workspace.EpisodesThisMonth, workspace.EpisodesPerMonth, workspace.Plan)
	}

	// Load generation context
	show, err := s.storage.Shows().GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show.WorkspaceID != workspaceID {
		return nil, common.Errorf(common.ErrForbidden, "show %s does not belong to workspace %s", showID, workspaceID)
	}

	profile := show.Production
	if profile == nil {
		profile = models.DefaultProductionProfile()
	}

	summaries, err := s.storage.Episodes().GetRecentSummaries(ctx, showID, 3)
	if err != nil {
		return nil, err
	}

	number, err := s.storage.Episodes().NextEpisodeNumber(ctx, showID)
	if err != nil {
		return nil, err
	}

	// Create the episode row immediately so every attempt is observable
	episode := &models.Episode{
		ID:          common.NewEpisodeID(),
		WorkspaceID: workspaceID,
		ShowID:      showID,
		Number:      number,
		Status:      models.EpisodeStatusGenerating,
		TriggeredBy: triggeredBy,
	}
	if err := s.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		return nil, err
	}
	s.appendLog(ctx, episode.ID, models.LogEventCreated,
		fmt.Sprintf("Episode %d created (%s)", number, triggeredBy), nil)
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventEpisodeCreated, Payload: episode})

	s.logger.Info().
		Str("episode_id", episode.ID).
		Str("show_id", showID).
		Int("number", number).
		Str("triggered_by", triggeredBy).
		Msg("Episode generation started")

	gc := &interfaces.GenerationContext{
		Show:           show,
		Characters:     show.ActiveCharacters(),
		Production:     profile,
		UsedMorals:     show.MoralsUsed,
		PriorSummaries: summaries,
		EpisodeNumber:  number,
	}

	// Sequential AI phase. Nothing is persisted until the whole phase
	// succeeds; a failure at any step aborts it.
	if err := s.runGenerationPhase(ctx, episode, gc); err != nil {
		s.failEpisode(ctx, episode, models.LogEventGenerationFailed, err)
		return nil, err
	}

	// Storyboard
	shots, err := s.generator.GenerateStoryboard(ctx, gc)
	if err != nil {
		s.failEpisode(ctx, episode, models.LogEventGenerationFailed, err)
		return nil, err
	}
	scenes, err := s.reconciler.ReplaceStoryboard(ctx, workspaceID, showID, episode.ID, shots)
	if err != nil {
		s.failEpisode(ctx, episode, models.LogEventGenerationFailed, err)
		return nil, err
	}

	// Persist text and advance to script_ready
	episode.Moral = gc.Moral
	episode.Title = gc.Title
	episode.Script = gc.Script
	episode.Summary = gc.Summary // from runGenerationPhase
	episode.Status = models.EpisodeStatusScriptReady
	if err := s.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		s.failEpisode(ctx, episode, models.LogEventGenerationFailed, err)
		return nil, err
	}
	s.appendLog(ctx, episode.ID, models.LogEventScriptReady,
		fmt.Sprintf("Script ready with %d shots", len(scenes)),
		map[string]interface{}{"shot_count": len(scenes)})

	// Record the moral as used for future novelty checks
	if err := s.storage.Shows().RecordMoralUsed(ctx, showID, gc.Moral); err != nil {
		s.logger.Warn().Err(err).Str("show_id", showID).Msg("Failed to record used moral")
	}

	// Enqueue the render job at the workspace's priority tier
	storyboardShots := make([]models.Shot, 0, len(scenes))
	for _, scene := range scenes {
		storyboardShots = append(storyboardShots, storyboard.ToStoryboardShot(scene))
	}
	settings := MergeRenderSettings(show.Production, show.StylePrompt, storyboardShots, overrides)

	if err := s.EnqueueRender(ctx, episode, workspace, settings); err != nil {
		s.failEpisode(ctx, episode, models.LogEventRenderFailed, err)
		return nil, err
	}

	// Bump the monthly counter and notify owners
	if err := s.storage.Workspaces().IncrementEpisodesThisMonth(ctx, workspaceID); err != nil {
		s.logger.Warn().Err(err).Str("workspace_id", workspaceID).Msg("Failed to increment monthly episode counter")
	}
	s.notifier.EpisodeQueued(ctx, episode)

	s.logger.Info().
		Str("episode_id", episode.ID).
		Str("render_job_id", episode.RenderJobID).
		Msg("Episode generation complete, render queued")

	return episode, nil
}

// runGenerationPhase executes moral, title, script, summary in order,
// storing results only on the context until the whole phase succeeds.
func (s *Service) runGenerationPhase(ctx context.Context, episode *models.Episode, gc *interfaces.GenerationContext) error {
	moral, err := s.generator.GenerateMoral(ctx, gc)
	if err != nil {
		return fmt.Errorf("moral generation: %w", err)
	}
	gc.Moral = moral

	title, err := s.generator.GenerateTitle(ctx, gc)
	if err != nil {
		return fmt.Errorf("title generation: %w", err)
	}
	gc.Title = title

	script, err := s.generator.GenerateScript(ctx, gc)
	if err != nil {
		return fmt.Errorf("script generation: %w", err)
	}
	gc.Script = script

	summary, err := s.generator.GenerateSummary(ctx, gc)
	if err != nil {
		return fmt.Errorf("summary generation: %w", err)
	}
	gc.Summary = summary

	return nil
}

// EnqueueRender creates (or reuses) a RenderJob, submits the queue
// message at the workspace tier, and advances the episode to
// render_queued. Also used by the re-queue path after cancellation.
func (s *Service) EnqueueRender(ctx context.Context, episode *models.Episode, workspace *models.Workspace, settings models.RenderSettings) error {
	// A cancelled job that never reached the queue is overwritten
	// rather than duplicated.
	job, err := s.storage.RenderJobs().GetReusableRenderJob(ctx, episode.ID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		job = &models.RenderJob{
			ID:          common.NewRenderJobID(),
			EpisodeID:   episode.ID,
			WorkspaceID: episode.WorkspaceID,
		}
	}

	job.Status = models.RenderJobStatusQueued
	job.Priority = workspace.RenderPriority()
	job.ProgressPercent = 0
	job.CurrentStep = ""
	job.Error = ""
	job.RenderSettings = settings
	if err := s.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
		return err
	}

	msg := &models.RenderQueueMessage{
		EpisodeID:   episode.ID,
		WorkspaceID: episode.WorkspaceID,
		ShowID:      episode.ShowID,
		RenderJobID: job.ID,
	}
	queueJobID, err := s.queue.Enqueue(ctx, msg, job.Priority)
	if err != nil {
		return common.WrapError(nil, "failed to enqueue render job", err)
	}

	job.QueueJobID = queueJobID
	if err := s.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
		return err
	}

	episode.RenderJobID = job.ID
	episode.Status = models.EpisodeStatusRenderQueued
	if err := s.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		return err
	}
	s.appendLog(ctx, episode.ID, models.LogEventRenderQueued,
		fmt.Sprintf("Render queued at priority %d", job.Priority),
		map[string]interface{}{"render_job_id": job.ID, "queue_job_id": queueJobID, "priority": job.Priority})
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventEpisodeQueued, Payload: episode})

	return nil
}

// failEpisode marks the episode render_failed and records the failure
// in the ledger. Its own errors are swallowed so they never mask the
// primary failure.
func (s *Service) failEpisode(ctx context.Context, episode *models.Episode, event string, cause error) {
	episode.Status = models.EpisodeStatusRenderFailed
	if err := s.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		s.logger.Error().Err(err).Str("episode_id", episode.ID).Msg("Failed to mark episode failed")
	}
	s.appendLog(ctx, episode.ID, event, cause.Error(), nil)
	s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventGenerationFailed, Payload: episode})

	s.logger.Error().Err(cause).
		Str("episode_id", episode.ID).
		Str("event", event).
		Msg("Episode generation failed")
}

func (s *Service) appendLog(ctx context.Context, episodeID, event, message string, metadata map[string]interface{}) {
	entry := &models.PipelineLog{
		EpisodeID: episodeID,
		Event:     event,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := s.storage.PipelineLogs().AppendLog(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("episode_id", episodeID).Str("event", event).Msg("Failed to append pipeline log")
	}
}
