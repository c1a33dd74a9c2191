package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	workspaces   interfaces.WorkspaceStorage
	shows        interfaces.ShowStorage
	episodes     interfaces.EpisodeStorage
	scenes       interfaces.SceneStorage
	renderJobs   interfaces.RenderJobStorage
	pipelineLogs interfaces.PipelineLogStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		workspaces:   NewWorkspaceStorage(db, logger),
		shows:        NewShowStorage(db, logger),
		episodes:     NewEpisodeStorage(db, logger),
		scenes:       NewSceneStorage(db, logger),
		renderJobs:   NewRenderJobStorage(db, logger),
		pipelineLogs: NewPipelineLogStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// NewManagerWithDB builds a manager over an existing connection.
// Used by tests and by components sharing one store.
func NewManagerWithDB(db *BadgerDB, logger arbor.ILogger) interfaces.StorageManager {
	return &Manager{
		db:           db,
		workspaces:   NewWorkspaceStorage(db, logger),
		shows:        NewShowStorage(db, logger),
		episodes:     NewEpisodeStorage(db, logger),
		scenes:       NewSceneStorage(db, logger),
		renderJobs:   NewRenderJobStorage(db, logger),
		pipelineLogs: NewPipelineLogStorage(db, logger),
		logger:       logger,
	}
}

// Workspaces returns the workspace storage interface
func (m *Manager) Workspaces() interfaces.WorkspaceStorage {
	return m.workspaces
}

// Shows returns the show storage interface
func (m *Manager) Shows() interfaces.ShowStorage {
	return m.shows
}

// Episodes returns the episode storage interface
func (m *Manager) Episodes() interfaces.EpisodeStorage {
	return m.episodes
}

// Scenes returns the scene storage interface
func (m *Manager) Scenes() interfaces.SceneStorage {
	return m.scenes
}

// RenderJobs returns the render job storage interface
func (m *Manager) RenderJobs() interfaces.RenderJobStorage {
	return m.renderJobs
}

// PipelineLogs returns the pipeline log storage interface
func (m *Manager) PipelineLogs() interfaces.PipelineLogStorage {
	return m.pipelineLogs
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
