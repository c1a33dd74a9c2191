package models

import (
	"time"
	"unicode/utf8"
)

// Field limits applied whenever a scene enters the system, whether from
// AI output, manual API input, or storyboard resync.
const (
	MinSceneDuration = 0.5
	MaxSceneDuration = 120.0
	MinSceneIndex    = 1
	MaxSceneIndex    = 10000

	MaxCameraLen         = 120
	MaxActionLen         = 5000
	MaxEmotionLen        = 60
	MaxMusicMoodLen      = 120
	MaxFocusCharacterLen = 120
	MaxPromptPositiveLen = 10000
	MaxPromptNegativeLen = 6000
)

// Scene represents one addressable shot within an episode's storyboard.
// Identity key: (EpisodeID, SceneIndex, ShotIndex).
type Scene struct {
	ID          string `json:"id"` // sc_{uuid}
	EpisodeID   string `json:"episode_id" badgerhold:"index"`
	WorkspaceID string `json:"workspace_id"`
	ShowID      string `json:"show_id"`

	SceneIndex int `json:"scene_index"`
	ShotIndex  int `json:"shot_index"`
	SortOrder  int `json:"sort_order"` // Canonical render order, default scene_index*1000+shot_index

	DurationSec    float64 `json:"duration_sec"`
	Camera         string  `json:"camera"`
	Action         string  `json:"action"`
	Emotion        string  `json:"emotion"`
	MusicMood      string  `json:"music_mood"`
	PromptPositive string  `json:"prompt_positive" validate:"required"`
	PromptNegative string  `json:"prompt_negative"`
	FocusCharacter string  `json:"focus_character,omitempty"`
	Seed           *int64  `json:"seed,omitempty"` // nil is distinct from 0

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSortOrder computes the canonical sort order for an index pair
func DefaultSortOrder(sceneIndex, shotIndex int) int {
	return sceneIndex*1000 + shotIndex
}

// Normalize clamps numeric fields and caps text fields in place.
// Applied uniformly at every entry point so stored scenes and render
// payloads stay within bounds.
func (s *Scene) Normalize() {
	s.DurationSec = clampDuration(s.DurationSec)
	s.SceneIndex = clampIndex(s.SceneIndex)
	s.ShotIndex = clampIndex(s.ShotIndex)

	s.Camera = truncate(s.Camera, MaxCameraLen)
	s.Action = truncate(s.Action, MaxActionLen)
	s.Emotion = truncate(s.Emotion, MaxEmotionLen)
	s.MusicMood = truncate(s.MusicMood, MaxMusicMoodLen)
	s.FocusCharacter = truncate(s.FocusCharacter, MaxFocusCharacterLen)
	s.PromptPositive = truncate(s.PromptPositive, MaxPromptPositiveLen)
	s.PromptNegative = truncate(s.PromptNegative, MaxPromptNegativeLen)
}

func clampDuration(d float64) float64 {
	if d < MinSceneDuration {
		return MinSceneDuration
	}
	if d > MaxSceneDuration {
		return MaxSceneDuration
	}
	return d
}

func clampIndex(i int) int {
	if i < MinSceneIndex {
		return MinSceneIndex
	}
	if i > MaxSceneIndex {
		return MaxSceneIndex
	}
	return i
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so multibyte text is never split
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
