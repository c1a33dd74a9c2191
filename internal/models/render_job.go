package models

import (
	"time"
)

// RenderJobStatus represents the state of a render attempt
type RenderJobStatus string

const (
	RenderJobStatusQueued    RenderJobStatus = "queued"
	RenderJobStatusRunning   RenderJobStatus = "running"
	RenderJobStatusCompleted RenderJobStatus = "completed"
	RenderJobStatusFailed    RenderJobStatus = "failed"
	RenderJobStatusCancelled RenderJobStatus = "cancelled"
)

// RenderJob tracks one render attempt for an episode. Separate from the
// underlying queue entry; QueueJobID correlates the two. A cancelled job
// with no QueueJobID is reused on re-enqueue rather than duplicated.
type RenderJob struct {
	ID          string          `json:"id"` // rj_{uuid}
	EpisodeID   string          `json:"episode_id" badgerhold:"index"`
	WorkspaceID string          `json:"workspace_id"`
	Status      RenderJobStatus `json:"status" badgerhold:"index"`
	Priority    int             `json:"priority"` // Workspace tier value, higher is stronger

	QueueJobID      string  `json:"queue_job_id,omitempty"` // External queue message id
	ProgressPercent float64 `json:"progress_percent"`
	CurrentStep     string  `json:"current_step,omitempty"`
	Error           string  `json:"error,omitempty"`

	RenderSettings RenderSettings `json:"render_settings"` // Snapshot at enqueue, resynced on scene edits

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the job has reached a final state
func (j *RenderJob) IsTerminal() bool {
	switch j.Status {
	case RenderJobStatusCompleted, RenderJobStatusFailed, RenderJobStatusCancelled:
		return true
	}
	return false
}

// RenderSettingsVersion is the current schema version for RenderSettings
const RenderSettingsVersion = 1

// RenderSettings is the versioned render configuration snapshot carried
// by a RenderJob. Extra passes through unrecognized settings untouched
// for forward compatibility.
type RenderSettings struct {
	Version     int                    `json:"version"`
	Storyboard  []Shot                 `json:"storyboard"`
	StylePrompt string                 `json:"style_prompt"`
	Production  ProductionProfile      `json:"production"`
	Audio       AudioSettings          `json:"audio"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// AudioSettings configures the audio portion of a render
type AudioSettings struct {
	MusicEnabled  bool    `json:"music_enabled"`
	SfxEnabled    bool    `json:"sfx_enabled"`
	VoiceEnabled  bool    `json:"voice_enabled"`
	MusicVolume   float64 `json:"music_volume,omitempty"`
	VoiceProvider string  `json:"voice_provider,omitempty"`
}

// DefaultAudioSettings returns audio settings derived from a production profile
func DefaultAudioSettings(profile *ProductionProfile) AudioSettings {
	return AudioSettings{
		MusicEnabled: profile.MusicEnabled,
		SfxEnabled:   profile.SfxEnabled,
		VoiceEnabled: true,
		MusicVolume:  0.35,
	}
}
