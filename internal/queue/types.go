package queue

import (
	"time"

	"github.com/showforge/showforge/internal/models"
)

// Entry states as stored
const (
	StateWaiting = "waiting"
	StateActive  = "active"
	StateFailed  = "failed"
)

// entry is the internal structure stored in Badger for one queue message
type entry struct {
	ID           string                    `json:"id"`
	Message      models.RenderQueueMessage `json:"message"`
	Priority     int                       `json:"priority"` // Tier value as supplied by the caller
	State        string                    `json:"state"`
	EnqueuedAt   time.Time                 `json:"enqueued_at"`
	VisibleAt    time.Time                 `json:"visible_at"`
	ReceiveCount int                       `json:"receive_count"`
	LastError    string                    `json:"last_error,omitempty"`
	FailedAt     *time.Time                `json:"failed_at,omitempty"`
}

// Options configures a Badger-backed render queue
type Options struct {
	QueueName         string
	VisibilityTimeout time.Duration
	MaxReceive        int
	RetryBackoff      time.Duration // Base backoff, doubles per delivery attempt
	MaxHistory        int           // Retained completed/failed entries
}

// withDefaults fills zero-valued options
func (o Options) withDefaults() Options {
	if o.QueueName == "" {
		o.QueueName = "render"
	}
	if o.VisibilityTimeout <= 0 {
		o.VisibilityTimeout = 90 * time.Minute
	}
	if o.MaxReceive <= 0 {
		o.MaxReceive = 2
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 5 * time.Second
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = 200
	}
	return o
}
