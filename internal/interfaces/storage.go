package interfaces

import (
	"context"

	"github.com/showforge/showforge/internal/models"
)

// WorkspaceStorage - interface for workspace persistence
type WorkspaceStorage interface {
	StoreWorkspace(ctx context.Context, workspace *models.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	GetAllWorkspaces(ctx context.Context) ([]*models.Workspace, error)
	IncrementEpisodesThisMonth(ctx context.Context, id string) error
}

// ShowStorage - interface for show persistence
type ShowStorage interface {
	StoreShow(ctx context.Context, show *models.Show) error
	GetShow(ctx context.Context, id string) (*models.Show, error)
	GetShowsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Show, error)
	GetAllShows(ctx context.Context) ([]*models.Show, error)
	RecordMoralUsed(ctx context.Context, showID, moral string) error
}

// EpisodeStorage - interface for episode persistence
type EpisodeStorage interface {
	StoreEpisode(ctx context.Context, episode *models.Episode) error
	GetEpisode(ctx context.Context, id string) (*models.Episode, error)
	GetEpisodesByShow(ctx context.Context, showID string) ([]*models.Episode, error)
	GetEpisodesByWorkspace(ctx context.Context, workspaceID string) ([]*models.Episode, error)
	GetRecentSummaries(ctx context.Context, showID string, limit int) ([]string, error)
	NextEpisodeNumber(ctx context.Context, showID string) (int, error)
}

// SceneStorage - interface for scene persistence
type SceneStorage interface {
	StoreScene(ctx context.Context, scene *models.Scene) error
	GetScene(ctx context.Context, id string) (*models.Scene, error)
	GetScenesByEpisode(ctx context.Context, episodeID string) ([]*models.Scene, error)
	DeleteScene(ctx context.Context, id string) error
	DeleteScenesByEpisode(ctx context.Context, episodeID string) error
}

// RenderJobStorage - interface for render job persistence
type RenderJobStorage interface {
	StoreRenderJob(ctx context.Context, job *models.RenderJob) error
	GetRenderJob(ctx context.Context, id string) (*models.RenderJob, error)
	GetRenderJobByQueueJobID(ctx context.Context, queueJobID string) (*models.RenderJob, error)
	GetLatestRenderJobForEpisode(ctx context.Context, episodeID string) (*models.RenderJob, error)
	GetReusableRenderJob(ctx context.Context, episodeID string) (*models.RenderJob, error)
}

// PipelineLogStorage - interface for the append-only episode event ledger
type PipelineLogStorage interface {
	AppendLog(ctx context.Context, log *models.PipelineLog) error
	GetLogsByEpisode(ctx context.Context, episodeID string) ([]*models.PipelineLog, error)
}

// StorageManager aggregates all storage interfaces over one connection
type StorageManager interface {
	Workspaces() WorkspaceStorage
	Shows() ShowStorage
	Episodes() EpisodeStorage
	Scenes() SceneStorage
	RenderJobs() RenderJobStorage
	PipelineLogs() PipelineLogStorage
	Close() error
}
