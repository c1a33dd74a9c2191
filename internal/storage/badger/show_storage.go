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

// ShowStorage implements the ShowStorage interface for Badger
type ShowStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewShowStorage creates a new ShowStorage instance
func NewShowStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ShowStorage {
	return &ShowStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ShowStorage) StoreShow(ctx context.Context, show *models.Show) error {
	if show.CreatedAt.IsZero() {
		show.CreatedAt = time.Now()
	}
	show.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(show.ID, show); err != nil {
		return fmt.Errorf("failed to store show: %w", err)
	}
	return nil
}

func (s *ShowStorage) GetShow(ctx context.Context, id string) (*models.Show, error) {
	var show models.Show
	if err := s.db.Store().Get(id, &show); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.Errorf(common.ErrNotFound, "show %s", id)
		}
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return &show, nil
}

func (s *ShowStorage) GetShowsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Show, error) {
	var shows []*models.Show
	if err := s.db.Store().Find(&shows, badgerhold.Where("WorkspaceID").Eq(workspaceID)); err != nil {
		return nil, fmt.Errorf("failed to list shows for workspace: %w", err)
	}
	return shows, nil
}

func (s *ShowStorage) GetAllShows(ctx context.Context) ([]*models.Show, error) {
	var shows []*models.Show
	if err := s.db.Store().Find(&shows, nil); err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}
	return shows, nil
}

// RecordMoralUsed appends a moral to the show's novelty-avoidance list
func (s *ShowStorage) RecordMoralUsed(ctx context.Context, showID, moral string) error {
	show, err := s.GetShow(ctx, showID)
	if err != nil {
		return err
	}
	for _, used := range show.MoralsUsed {
		if used == moral {
			return nil
		}
	}
	show.MoralsUsed = append(show.MoralsUsed, moral)
	return s.StoreShow(ctx, show)
}
