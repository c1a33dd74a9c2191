package interfaces

import (
	"context"

	"github.com/showforge/showforge/internal/models"
)

// QueueStats summarizes queue depth by state
type QueueStats struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// QueueEntry is the observable state of one queue message
type QueueEntry struct {
	ID       string                    `json:"id"`
	Priority int                       `json:"priority"`
	Attempts int                       `json:"attempts"`
	State    string                    `json:"state"` // waiting, active, completed, failed
	Message  models.RenderQueueMessage `json:"message"`
}

// AckFunc removes a delivered message from the queue permanently.
// NackFunc returns it for redelivery after backoff, or dead-letters it
// once the delivery attempt limit is reached.
type (
	AckFunc  func() error
	NackFunc func() error
)

// RenderQueue is a priority, at-least-once job queue with bounded
// retries and exponential backoff. Jobs are served in tier order with
// FIFO tie-break within a tier.
type RenderQueue interface {
	Enqueue(ctx context.Context, msg *models.RenderQueueMessage, priority int) (string, error)
	Receive(ctx context.Context) (*QueueEntry, AckFunc, NackFunc, error)
	GetJob(ctx context.Context, id string) (*QueueEntry, error)
	GetActive(ctx context.Context) ([]*QueueEntry, error)
	GetWaiting(ctx context.Context) ([]*QueueEntry, error)
	GetFailed(ctx context.Context) ([]*QueueEntry, error)
	Remove(ctx context.Context, id string) error
	Stats(ctx context.Context) (*QueueStats, error)
	Close() error
}
