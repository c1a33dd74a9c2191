package common

import (
	"github.com/google/uuid"
)

// NewEpisodeID generates a unique episode ID with the "ep_" prefix
// Format: ep_<uuid>
func NewEpisodeID() string {
	return "ep_" + uuid.New().String()
}

// NewSceneID generates a unique scene ID with the "sc_" prefix
func NewSceneID() string {
	return "sc_" + uuid.New().String()
}

// NewRenderJobID generates a unique render job ID with the "rj_" prefix
func NewRenderJobID() string {
	return "rj_" + uuid.New().String()
}

// NewPipelineLogID generates a unique pipeline log entry ID with the "log_" prefix
func NewPipelineLogID() string {
	return "log_" + uuid.New().String()
}

// NewWorkspaceID generates a unique workspace ID with the "ws_" prefix
func NewWorkspaceID() string {
	return "ws_" + uuid.New().String()
}

// NewShowID generates a unique show ID with the "show_" prefix
func NewShowID() string {
	return "show_" + uuid.New().String()
}
