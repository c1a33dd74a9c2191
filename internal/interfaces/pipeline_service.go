package interfaces

import (
	"context"

	"github.com/showforge/showforge/internal/models"
)

// PipelineService is the top-level episode generation contract. Both the
// HTTP trigger route and the scheduler call into it. overrides are
// per-request render setting adjustments applied on top of the show's
// production profile; nil means profile settings as-is.
type PipelineService interface {
	Generate(ctx context.Context, workspaceID, showID, triggeredBy string, overrides map[string]interface{}) (*models.Episode, error)
}

// SchedulerService owns the per-show cron table and triggers generation
type SchedulerService interface {
	Start() error
	Stop() error
	// Sync recomputes cron entries from current Show records
	Sync(ctx context.Context) error
	Entries() []ScheduleEntry
}

// ScheduleEntry is the observable state of one show's cron registration
type ScheduleEntry struct {
	ShowID   string `json:"show_id"`
	CronSpec string `json:"cron_spec"`
	Timezone string `json:"timezone"`
	NextFire string `json:"next_fire"`
}

// NotifierService records operator notifications for pipeline milestones
type NotifierService interface {
	EpisodeQueued(ctx context.Context, episode *models.Episode)
	AwaitingApproval(ctx context.Context, episode *models.Episode)
	RenderFailed(ctx context.Context, episode *models.Episode, errMsg string)
}
