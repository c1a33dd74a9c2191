package badger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// logSequence ensures unique, ordered Seq values even when multiple
// entries are written within the same nanosecond
var logSequence uint64

// PipelineLogStorage implements the PipelineLogStorage interface for Badger
type PipelineLogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPipelineLogStorage creates a new PipelineLogStorage instance
func NewPipelineLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PipelineLogStorage {
	return &PipelineLogStorage{
		db:     db,
		logger: logger,
	}
}

// AppendLog inserts one ledger entry. Entries are never updated or
// deleted afterwards.
func (s *PipelineLogStorage) AppendLog(ctx context.Context, log *models.PipelineLog) error {
	if log.ID == "" {
		log.ID = common.NewPipelineLogID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	log.Seq = atomic.AddUint64(&logSequence, 1)

	if err := s.db.Store().Insert(log.ID, log); err != nil {
		return fmt.Errorf("failed to append pipeline log: %w", err)
	}
	return nil
}

func (s *PipelineLogStorage) GetLogsByEpisode(ctx context.Context, episodeID string) ([]*models.PipelineLog, error) {
	var logs []*models.PipelineLog
	query := badgerhold.Where("EpisodeID").Eq(episodeID).SortBy("Seq")
	if err := s.db.Store().Find(&logs, query); err != nil {
		return nil, fmt.Errorf("failed to get pipeline logs: %w", err)
	}
	return logs, nil
}
