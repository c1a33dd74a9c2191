package storyboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// Reconciler converts between flat shot lists and persisted Scene
// records. It is the canonical owner of shot ordering.
type Reconciler struct {
	scenes     interfaces.SceneStorage
	renderJobs interfaces.RenderJobStorage
	logger     arbor.ILogger
}

// NewReconciler creates a new storyboard reconciler
func NewReconciler(scenes interfaces.SceneStorage, renderJobs interfaces.RenderJobStorage, logger arbor.ILogger) *Reconciler {
	return &Reconciler{
		scenes:     scenes,
		renderJobs: renderJobs,
		logger:     logger,
	}
}

// ReplaceStoryboard deletes every existing scene for the episode and
// recreates one scene per shot in input order. Delete failures are
// swallowed to avoid partial-state deadlock; creation failures
// propagate so an incomplete storyboard never hides the error.
func (r *Reconciler) ReplaceStoryboard(ctx context.Context, workspaceID, showID, episodeID string, shots []models.Shot) ([]*models.Scene, error) {
	if err := r.scenes.DeleteScenesByEpisode(ctx, episodeID); err != nil {
		r.logger.Warn().Err(err).Str("episode_id", episodeID).Msg("Failed to clear existing scenes before replace")
	}

	created := make([]*models.Scene, 0, len(shots))
	for i, shot := range shots {
		scene := r.sceneFromShot(workspaceID, showID, episodeID, shot, i+1)

		if err := r.scenes.StoreScene(ctx, scene); err != nil {
			return created, fmt.Errorf("failed to create scene %d/%d: %w", i+1, len(shots), err)
		}
		created = append(created, scene)
	}

	r.logger.Debug().Str("episode_id", episodeID).Int("scenes", len(created)).Msg("Storyboard replaced")
	return created, nil
}

// sceneFromShot builds a normalized Scene from a wire shot. position is
// the 1-based input position, used as shot_index when absent.
func (r *Reconciler) sceneFromShot(workspaceID, showID, episodeID string, shot models.Shot, position int) *models.Scene {
	sceneIndex := int(shot.Scene)
	if sceneIndex == 0 {
		sceneIndex = 1
	}
	shotIndex := int(shot.ShotIndex)
	if shotIndex == 0 {
		shotIndex = position
	}

	scene := &models.Scene{
		ID:             common.NewSceneID(),
		EpisodeID:      episodeID,
		WorkspaceID:    workspaceID,
		ShowID:         showID,
		SceneIndex:     sceneIndex,
		ShotIndex:      shotIndex,
		DurationSec:    shot.DurationSec,
		Camera:         shot.Camera,
		Action:         shot.Action,
		Emotion:        shot.Emotion,
		MusicMood:      shot.MusicMood,
		PromptPositive: shot.PromptPositive,
		PromptNegative: shot.PromptNegative,
		FocusCharacter: shot.FocusCharacter,
		Seed:           shot.Seed,
	}
	scene.Normalize()
	scene.SortOrder = models.DefaultSortOrder(scene.SceneIndex, scene.ShotIndex)
	return scene
}

// ToStoryboardShot is the exact inverse projection of sceneFromShot
func ToStoryboardShot(scene *models.Scene) models.Shot {
	return models.Shot{
		Scene:          float64(scene.SceneIndex),
		ShotIndex:      float64(scene.ShotIndex),
		DurationSec:    scene.DurationSec,
		Camera:         scene.Camera,
		FocusCharacter: scene.FocusCharacter,
		Seed:           scene.Seed,
		Action:         scene.Action,
		Emotion:        scene.Emotion,
		MusicMood:      scene.MusicMood,
		PromptPositive: scene.PromptPositive,
		PromptNegative: scene.PromptNegative,
	}
}

// CurrentStoryboard projects the episode's scene set back to wire form
// in sort order
func (r *Reconciler) CurrentStoryboard(ctx context.Context, episodeID string) ([]models.Shot, error) {
	scenes, err := r.scenes.GetScenesByEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	shots := make([]models.Shot, 0, len(scenes))
	for _, scene := range scenes {
		shots = append(shots, ToStoryboardShot(scene))
	}
	return shots, nil
}

// ResyncRenderJob re-derives the episode's storyboard and persists it
// onto the most recent render job, if one exists. Called after every
// direct scene mutation so an actively queued job never silently
// diverges from the scene set.
func (r *Reconciler) ResyncRenderJob(ctx context.Context, episodeID string) error {
	job, err := r.renderJobs.GetLatestRenderJobForEpisode(ctx, episodeID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil // No render job yet, nothing to sync
		}
		return err
	}

	shots, err := r.CurrentStoryboard(ctx, episodeID)
	if err != nil {
		return err
	}

	job.RenderSettings.Storyboard = shots
	if err := r.renderJobs.StoreRenderJob(ctx, job); err != nil {
		return fmt.Errorf("failed to resync render job storyboard: %w", err)
	}

	r.logger.Debug().Str("episode_id", episodeID).Str("render_job_id", job.ID).Int("shots", len(shots)).Msg("Render job storyboard resynced")
	return nil
}
