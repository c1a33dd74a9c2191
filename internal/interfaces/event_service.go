package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventEpisodeCreated     EventType = "episode_created"
	EventEpisodeQueued      EventType = "episode_queued"
	EventRenderProgress     EventType = "render_progress"
	EventAwaitingApproval   EventType = "awaiting_approval"
	EventRenderFailed       EventType = "render_failed"
	EventEpisodePublished   EventType = "episode_published"
	EventEpisodeRejected    EventType = "episode_rejected"
	EventGenerationFailed   EventType = "generation_failed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the in-process pub/sub event bus
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish dispatches an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	Close() error
}
