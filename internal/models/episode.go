package models

import (
	"time"
)

// EpisodeStatus represents the lifecycle state of an episode
type EpisodeStatus string

const (
	EpisodeStatusGenerating       EpisodeStatus = "generating"
	EpisodeStatusScriptReady      EpisodeStatus = "script_ready"
	EpisodeStatusRenderQueued     EpisodeStatus = "render_queued"
	EpisodeStatusRendering        EpisodeStatus = "rendering"
	EpisodeStatusAwaitingApproval EpisodeStatus = "awaiting_approval"
	EpisodeStatusRenderFailed     EpisodeStatus = "render_failed"
	EpisodeStatusPublished        EpisodeStatus = "published"
	EpisodeStatusRejected         EpisodeStatus = "rejected"
)

// Episode represents one produced unit of show content. Created by the
// pipeline orchestrator, mutated by the orchestrator, the approval
// actions, and the render callback handlers. Never deleted by the
// pipeline itself.
type Episode struct {
	ID          string        `json:"id"` // ep_{uuid}
	WorkspaceID string        `json:"workspace_id" badgerhold:"index"`
	ShowID      string        `json:"show_id" badgerhold:"index"`
	Number      int           `json:"number"` // Unique per show by convention, not enforced constraint
	Status      EpisodeStatus `json:"status" badgerhold:"index"`

	Moral   string `json:"moral"`
	Title   string `json:"title"`
	Script  string `json:"script"`
	Summary string `json:"summary"`

	RenderJobID     string  `json:"render_job_id,omitempty"` // Denormalized reference to the live render attempt
	OutputURL       string  `json:"output_url,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	RejectReason    string  `json:"reject_reason,omitempty"`
	TriggeredBy     string  `json:"triggered_by,omitempty"` // "manual" actor or "scheduler"

	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	RenderStartedAt   *time.Time `json:"render_started_at,omitempty"`
	RenderCompletedAt *time.Time `json:"render_completed_at,omitempty"`
}

// IsTerminal reports whether the episode has reached a final state
func (e *Episode) IsTerminal() bool {
	return e.Status == EpisodeStatusPublished || e.Status == EpisodeStatusRejected
}

// IsRenderSettled reports whether the render outcome has been recorded.
// Progress callbacks arriving after this point must not regress status.
func (e *Episode) IsRenderSettled() bool {
	switch e.Status {
	case EpisodeStatusAwaitingApproval, EpisodeStatusPublished, EpisodeStatusRejected:
		return true
	}
	return false
}
