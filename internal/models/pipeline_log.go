package models

import (
	"time"
)

// Pipeline event tags written to the per-episode audit trail
const (
	LogEventCreated          = "created"
	LogEventScriptReady      = "script_ready"
	LogEventRenderQueued     = "render_queued"
	LogEventRenderProgress   = "render_progress"
	LogEventRenderCompleted  = "render_completed"
	LogEventRenderFailed     = "render_failed"
	LogEventGenerationFailed = "generation_failed"
	LogEventApproved         = "approved"
	LogEventPublished        = "published"
	LogEventRejected         = "rejected"
	LogEventCancelled        = "cancelled"
)

// PipelineLog is one entry in an episode's append-only event ledger.
// Never updated or deleted; Seq preserves insertion order.
type PipelineLog struct {
	ID        string                 `json:"id"` // log_{uuid}
	EpisodeID string                 `json:"episode_id" badgerhold:"index"`
	Event     string                 `json:"event"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Seq       uint64                 `json:"seq" badgerhold:"index"` // Insertion order within the ledger
	CreatedAt time.Time              `json:"created_at"`
}
