package models

import (
	"time"
)

// Show represents a content series owned by a workspace. Episodes are
// generated against its premise, characters, and production profile.
type Show struct {
	ID          string `json:"id" yaml:"id"` // show_{uuid}
	WorkspaceID string `json:"workspace_id" yaml:"workspace_id" badgerhold:"index"`
	Name        string `json:"name" yaml:"name"`
	Premise     string `json:"premise" yaml:"premise"`
	StylePrompt string `json:"style_prompt" yaml:"style_prompt"` // Visual style applied to every shot

	Characters []Character        `json:"characters" yaml:"characters"`
	Production *ProductionProfile `json:"production,omitempty" yaml:"production,omitempty"` // nil means computed defaults
	Schedule   *ShowSchedule      `json:"schedule,omitempty" yaml:"schedule,omitempty"`     // nil means manual trigger only

	MoralsUsed []string `json:"morals_used" yaml:"morals_used"` // Novelty avoidance for moral generation

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Character represents a recurring character in a show
type Character struct {
	Name              string            `json:"name" yaml:"name"`
	Active            bool              `json:"active" yaml:"active"`
	PromptPositive    string            `json:"prompt_positive" yaml:"prompt_positive"`
	PromptNegative    string            `json:"prompt_negative" yaml:"prompt_negative"`
	Seed              *int64            `json:"seed,omitempty" yaml:"seed,omitempty"` // nil means no pinned seed
	ReferenceImageURL string            `json:"reference_image_url,omitempty" yaml:"reference_image_url,omitempty"`
	Voice             string            `json:"voice,omitempty" yaml:"voice,omitempty"`
	EmotionRefs       map[string]string `json:"emotion_refs,omitempty" yaml:"emotion_refs,omitempty"` // emotion -> reference image URL
}

// ActiveCharacters returns the characters currently enabled for generation
func (s *Show) ActiveCharacters() []Character {
	active := make([]Character, 0, len(s.Characters))
	for _, c := range s.Characters {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

// ProductionProfile configures which generation stages are enabled per show
type ProductionProfile struct {
	FramesEnabled bool   `json:"frames_enabled" yaml:"frames_enabled"`
	MusicEnabled  bool   `json:"music_enabled" yaml:"music_enabled"`
	SfxEnabled    bool   `json:"sfx_enabled" yaml:"sfx_enabled"`
	IntroEnabled  bool   `json:"intro_enabled" yaml:"intro_enabled"`
	OutroEnabled  bool   `json:"outro_enabled" yaml:"outro_enabled"`
	FrameRate     int    `json:"frame_rate,omitempty" yaml:"frame_rate,omitempty"`
	Resolution    string `json:"resolution,omitempty" yaml:"resolution,omitempty"` // e.g. "1080x1920"
	TargetMinutes int    `json:"target_minutes,omitempty" yaml:"target_minutes,omitempty"`
}

// DefaultProductionProfile returns the profile used when a show has none
func DefaultProductionProfile() *ProductionProfile {
	return &ProductionProfile{
		FramesEnabled: true,
		MusicEnabled:  true,
		SfxEnabled:    false,
		IntroEnabled:  true,
		OutroEnabled:  true,
		FrameRate:     24,
		Resolution:    "1080x1920",
		TargetMinutes: 3,
	}
}

// ShowSchedule holds the cron trigger for automatic episode generation
type ShowSchedule struct {
	CronSpec string `json:"cron_spec" yaml:"cron_spec"` // Standard 5-field cron expression
	Timezone string `json:"timezone" yaml:"timezone"`   // IANA name, empty means UTC
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}
