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

// RenderJobStorage implements the RenderJobStorage interface for Badger
type RenderJobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRenderJobStorage creates a new RenderJobStorage instance
func NewRenderJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RenderJobStorage {
	return &RenderJobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RenderJobStorage) StoreRenderJob(ctx context.Context, job *models.RenderJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to store render job: %w", err)
	}
	return nil
}

func (s *RenderJobStorage) GetRenderJob(ctx context.Context, id string) (*models.RenderJob, error) {
	var job models.RenderJob
	if err := s.db.Store().Get(id, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.Errorf(common.ErrNotFound, "render job %s", id)
		}
		return nil, fmt.Errorf("failed to get render job: %w", err)
	}
	return &job, nil
}

func (s *RenderJobStorage) GetRenderJobByQueueJobID(ctx context.Context, queueJobID string) (*models.RenderJob, error) {
	if queueJobID == "" {
		return nil, common.Errorf(common.ErrNotFound, "render job with empty queue job id")
	}
	var jobs []*models.RenderJob
	query := badgerhold.Where("QueueJobID").Eq(queueJobID).Limit(1)
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to find render job by queue job id: %w", err)
	}
	if len(jobs) == 0 {
		return nil, common.Errorf(common.ErrNotFound, "render job for queue job %s", queueJobID)
	}
	return jobs[0], nil
}

// GetLatestRenderJobForEpisode returns the most recently created job for
// an episode. Used as the fallback lookup when a queue message carries
// no render job id.
func (s *RenderJobStorage) GetLatestRenderJobForEpisode(ctx context.Context, episodeID string) (*models.RenderJob, error) {
	var jobs []*models.RenderJob
	query := badgerhold.Where("EpisodeID").Eq(episodeID).SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to find latest render job: %w", err)
	}
	if len(jobs) == 0 {
		return nil, common.Errorf(common.ErrNotFound, "render job for episode %s", episodeID)
	}
	return jobs[0], nil
}

// GetReusableRenderJob returns a cancelled job with no queue assignment
// for the episode, if one exists. Re-enqueue overwrites it instead of
// creating a duplicate row.
func (s *RenderJobStorage) GetReusableRenderJob(ctx context.Context, episodeID string) (*models.RenderJob, error) {
	var jobs []*models.RenderJob
	query := badgerhold.Where("EpisodeID").Eq(episodeID).
		And("Status").Eq(models.RenderJobStatusCancelled).
		And("QueueJobID").Eq("").
		SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to find reusable render job: %w", err)
	}
	if len(jobs) == 0 {
		return nil, common.Errorf(common.ErrNotFound, "reusable render job for episode %s", episodeID)
	}
	return jobs[0], nil
}
