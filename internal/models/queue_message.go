package models

import (
	"errors"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// RenderQueueMessage is the structure stored in the render queue.
// Keep it small - just enough for the dispatcher to find its records.
type RenderQueueMessage struct {
	EpisodeID   string `json:"episode_id"`
	WorkspaceID string `json:"workspace_id"`
	ShowID      string `json:"show_id"`
	RenderJobID string `json:"render_job_id,omitempty"` // May be empty on retry/regeneration paths
}
