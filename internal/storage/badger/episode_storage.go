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

// EpisodeStorage implements the EpisodeStorage interface for Badger
type EpisodeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEpisodeStorage creates a new EpisodeStorage instance
func NewEpisodeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EpisodeStorage {
	return &EpisodeStorage{
		db:     db,
		logger: logger,
	}
}

func (s *EpisodeStorage) StoreEpisode(ctx context.Context, episode *models.Episode) error {
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now()
	}
	episode.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(episode.ID, episode); err != nil {
		return fmt.Errorf("failed to store episode: %w", err)
	}
	return nil
}

func (s *EpisodeStorage) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	var episode models.Episode
	if err := s.db.Store().Get(id, &episode); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.Errorf(common.ErrNotFound, "episode %s", id)
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return &episode, nil
}

func (s *EpisodeStorage) GetEpisodesByShow(ctx context.Context, showID string) ([]*models.Episode, error) {
	var episodes []*models.Episode
	query := badgerhold.Where("ShowID").Eq(showID).SortBy("Number").Reverse()
	if err := s.db.Store().Find(&episodes, query); err != nil {
		return nil, fmt.Errorf("failed to list episodes for show: %w", err)
	}
	return episodes, nil
}

func (s *EpisodeStorage) GetEpisodesByWorkspace(ctx context.Context, workspaceID string) ([]*models.Episode, error) {
	var episodes []*models.Episode
	query := badgerhold.Where("WorkspaceID").Eq(workspaceID).SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&episodes, query); err != nil {
		return nil, fmt.Errorf("failed to list episodes for workspace: %w", err)
	}
	return episodes, nil
}

// GetRecentSummaries returns the newest non-empty episode summaries for
// a show, newest first, for continuity context.
func (s *EpisodeStorage) GetRecentSummaries(ctx context.Context, showID string, limit int) ([]string, error) {
	episodes, err := s.GetEpisodesByShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	summaries := make([]string, 0, limit)
	for _, ep := range episodes {
		if ep.Summary == "" {
			continue
		}
		summaries = append(summaries, ep.Summary)
		if len(summaries) >= limit {
			break
		}
	}
	return summaries, nil
}

// NextEpisodeNumber computes max existing number + 1 for the show.
// Read-then-write: two concurrent triggers for the same show can race
// and produce a duplicate number. Known and accepted.
func (s *EpisodeStorage) NextEpisodeNumber(ctx context.Context, showID string) (int, error) {
	var episodes []*models.Episode
	query := badgerhold.Where("ShowID").Eq(showID).SortBy("Number").Reverse().Limit(1)
	if err := s.db.Store().Find(&episodes, query); err != nil {
		return 0, fmt.Errorf("failed to find latest episode number: %w", err)
	}
	if len(episodes) == 0 {
		return 1, nil
	}
	return episodes[0].Number + 1, nil
}
