package models

// Shot is the wire form of one storyboard entry, as produced by the AI
// shot-list response and as carried in render settings. Index and
// duration fields are float64 because model output is not guaranteed to
// be integral; conversion to Scene truncates.
type Shot struct {
	Scene          float64 `json:"scene"`
	ShotIndex      float64 `json:"shot_index"`
	DurationSec    float64 `json:"duration_sec"`
	Camera         string  `json:"camera"`
	FocusCharacter string  `json:"focus_character,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
	Action         string  `json:"action"`
	Emotion        string  `json:"emotion"`
	MusicMood      string  `json:"music_mood"`
	PromptPositive string  `json:"prompt_positive"`
	PromptNegative string  `json:"prompt_negative"`
}

// ShotListResponse is the JSON envelope the AI generator returns
type ShotListResponse struct {
	Shots []Shot `json:"shots"`
}
