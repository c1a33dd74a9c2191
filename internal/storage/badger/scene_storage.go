package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// SceneStorage implements the SceneStorage interface for Badger
type SceneStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSceneStorage creates a new SceneStorage instance
func NewSceneStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SceneStorage {
	return &SceneStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SceneStorage) StoreScene(ctx context.Context, scene *models.Scene) error {
	if scene.CreatedAt.IsZero() {
		scene.CreatedAt = time.Now()
	}
	scene.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(scene.ID, scene); err != nil {
		return fmt.Errorf("failed to store scene: %w", err)
	}
	return nil
}

func (s *SceneStorage) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	var scene models.Scene
	if err := s.db.Store().Get(id, &scene); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.Errorf(common.ErrNotFound, "scene %s", id)
		}
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}
	return &scene, nil
}

// GetScenesByEpisode returns all scenes for an episode in sort order
func (s *SceneStorage) GetScenesByEpisode(ctx context.Context, episodeID string) ([]*models.Scene, error) {
	var scenes []*models.Scene
	query := badgerhold.Where("EpisodeID").Eq(episodeID).SortBy("SortOrder")
	if err := s.db.Store().Find(&scenes, query); err != nil {
		return nil, fmt.Errorf("failed to list scenes for episode: %w", err)
	}
	return scenes, nil
}

func (s *SceneStorage) DeleteScene(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Scene{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return common.Errorf(common.ErrNotFound, "scene %s", id)
		}
		return fmt.Errorf("failed to delete scene: %w", err)
	}
	return nil
}

func (s *SceneStorage) DeleteScenesByEpisode(ctx context.Context, episodeID string) error {
	if err := s.db.Store().DeleteMatching(&models.Scene{}, badgerhold.Where("EpisodeID").Eq(episodeID)); err != nil {
		return fmt.Errorf("failed to delete scenes for episode: %w", err)
	}
	return nil
}
