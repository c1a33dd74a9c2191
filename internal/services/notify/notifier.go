package notify

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// Service records operator notifications for pipeline milestones.
// Delivery transport (email, chat) is infrastructure outside this
// process; here notifications land in the log and on the event bus so
// the websocket stream and any future transport can pick them up.
type Service struct {
	workspaces interfaces.WorkspaceStorage
	events     interfaces.EventService
	logger     arbor.ILogger
}

// NewService creates a new notifier
func NewService(workspaces interfaces.WorkspaceStorage, events interfaces.EventService, logger arbor.ILogger) interfaces.NotifierService {
	return &Service{
		workspaces: workspaces,
		events:     events,
		logger:     logger,
	}
}

// EpisodeQueued notifies workspace owners that an episode entered the
// render queue
func (s *Service) EpisodeQueued(ctx context.Context, episode *models.Episode) {
	s.notify(ctx, episode, interfaces.EventEpisodeQueued,
		fmt.Sprintf("Episode %d queued for render", episode.Number))
}

// AwaitingApproval notifies workspace approvers that a render finished
func (s *Service) AwaitingApproval(ctx context.Context, episode *models.Episode) {
	s.notify(ctx, episode, interfaces.EventAwaitingApproval,
		fmt.Sprintf("Episode %d rendered, awaiting approval", episode.Number))
}

// RenderFailed notifies workspace approvers of a failed render
func (s *Service) RenderFailed(ctx context.Context, episode *models.Episode, errMsg string) {
	s.notify(ctx, episode, interfaces.EventRenderFailed,
		fmt.Sprintf("Episode %d render failed: %s", episode.Number, errMsg))
}

func (s *Service) notify(ctx context.Context, episode *models.Episode, eventType interfaces.EventType, message string) {
	recipients := []string{}
	if workspace, err := s.workspaces.GetWorkspace(ctx, episode.WorkspaceID); err == nil {
		recipients = workspace.Owners
	} else {
		s.logger.Warn().Err(err).Str("workspace_id", episode.WorkspaceID).Msg("Failed to resolve notification recipients")
	}

	s.logger.Info().
		Str("episode_id", episode.ID).
		Str("workspace_id", episode.WorkspaceID).
		Int("recipients", len(recipients)).
		Msg(message)

	s.events.Publish(ctx, interfaces.Event{
		Type: eventType,
		Payload: map[string]interface{}{
			"episode_id":   episode.ID,
			"workspace_id": episode.WorkspaceID,
			"message":      message,
			"recipients":   recipients,
		},
	})
}
