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

// WorkspaceStorage implements the WorkspaceStorage interface for Badger
type WorkspaceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWorkspaceStorage creates a new WorkspaceStorage instance
func NewWorkspaceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WorkspaceStorage {
	return &WorkspaceStorage{
		db:     db,
		logger: logger,
	}
}

func (s *WorkspaceStorage) StoreWorkspace(ctx context.Context, workspace *models.Workspace) error {
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = time.Now()
	}
	workspace.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(workspace.ID, workspace); err != nil {
		return fmt.Errorf("failed to store workspace: %w", err)
	}
	return nil
}

func (s *WorkspaceStorage) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := s.db.Store().Get(id, &workspace); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.Errorf(common.ErrNotFound, "workspace %s", id)
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return &workspace, nil
}

func (s *WorkspaceStorage) GetAllWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	var workspaces []*models.Workspace
	if err := s.db.Store().Find(&workspaces, nil); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// IncrementEpisodesThisMonth bumps the monthly usage counter by one.
// Read-then-write without a transaction, matching the platform's
// single-record update discipline.
func (s *WorkspaceStorage) IncrementEpisodesThisMonth(ctx context.Context, id string) error {
	workspace, err := s.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	workspace.EpisodesThisMonth++
	return s.StoreWorkspace(ctx, workspace)
}
