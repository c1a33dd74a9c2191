package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestScene_Normalize_Duration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		expected float64
	}{
		{name: "negative clamps to minimum", duration: -5, expected: MinSceneDuration},
		{name: "zero clamps to minimum", duration: 0, expected: MinSceneDuration},
		{name: "below minimum clamps up", duration: 0.1, expected: MinSceneDuration},
		{name: "in range unchanged", duration: 6.5, expected: 6.5},
		{name: "above maximum clamps down", duration: 500, expected: MaxSceneDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := &Scene{SceneIndex: 1, ShotIndex: 1, DurationSec: tt.duration}
			scene.Normalize()
			assert.Equal(t, tt.expected, scene.DurationSec)
		})
	}
}

func TestScene_Normalize_Indices(t *testing.T) {
	tests := []struct {
		name       string
		sceneIndex int
		shotIndex  int
		wantScene  int
		wantShot   int
	}{
		{name: "zero indices clamp to one", sceneIndex: 0, shotIndex: 0, wantScene: 1, wantShot: 1},
		{name: "negative indices clamp to one", sceneIndex: -3, shotIndex: -1, wantScene: 1, wantShot: 1},
		{name: "valid indices unchanged", sceneIndex: 4, shotIndex: 7, wantScene: 4, wantShot: 7},
		{name: "oversized indices clamp down", sceneIndex: 99999, shotIndex: 20000, wantScene: MaxSceneIndex, wantShot: MaxSceneIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := &Scene{SceneIndex: tt.sceneIndex, ShotIndex: tt.shotIndex, DurationSec: 5}
			scene.Normalize()
			assert.Equal(t, tt.wantScene, scene.SceneIndex)
			assert.Equal(t, tt.wantShot, scene.ShotIndex)
		})
	}
}

func TestScene_Normalize_TextCaps(t *testing.T) {
	scene := &Scene{
		SceneIndex:     1,
		ShotIndex:      1,
		DurationSec:    5,
		Camera:         strings.Repeat("c", MaxCameraLen+50),
		Action:         strings.Repeat("a", MaxActionLen+1),
		Emotion:        strings.Repeat("e", MaxEmotionLen*2),
		MusicMood:      strings.Repeat("m", MaxMusicMoodLen+10),
		FocusCharacter: strings.Repeat("f", MaxFocusCharacterLen+1),
		PromptPositive: strings.Repeat("p", MaxPromptPositiveLen+100),
		PromptNegative: strings.Repeat("n", MaxPromptNegativeLen+100),
	}
	scene.Normalize()

	assert.Len(t, scene.Camera, MaxCameraLen)
	assert.Len(t, scene.Action, MaxActionLen)
	assert.Len(t, scene.Emotion, MaxEmotionLen)
	assert.Len(t, scene.MusicMood, MaxMusicMoodLen)
	assert.Len(t, scene.FocusCharacter, MaxFocusCharacterLen)
	assert.Len(t, scene.PromptPositive, MaxPromptPositiveLen)
	assert.Len(t, scene.PromptNegative, MaxPromptNegativeLen)
}

func TestScene_Normalize_MultibyteTextStaysValid(t *testing.T) {
	scene := &Scene{
		SceneIndex: 1,
		ShotIndex:  1,
		Emotion:    "a" + strings.Repeat("\u4e16", 30),
	}
	scene.Normalize()

	assert.LessOrEqual(t, len(scene.Emotion), MaxEmotionLen)
	assert.True(t, utf8.ValidString(scene.Emotion))
}

func TestScene_Normalize_SeedPreserved(t *testing.T) {
	// A zero seed is a real seed, only a nil pointer means unseeded
	zero := int64(0)
	seeded := &Scene{SceneIndex: 1, ShotIndex: 1, DurationSec: 5, Seed: &zero}
	seeded.Normalize()
	if assert.NotNil(t, seeded.Seed) {
		assert.Equal(t, int64(0), *seeded.Seed)
	}

	unseeded := &Scene{SceneIndex: 1, ShotIndex: 1, DurationSec: 5}
	unseeded.Normalize()
	assert.Nil(t, unseeded.Seed)
}

func TestDefaultSortOrder(t *testing.T) {
	assert.Equal(t, 1001, DefaultSortOrder(1, 1))
	assert.Equal(t, 3002, DefaultSortOrder(3, 2))

	// Later scenes always sort after earlier ones regardless of shot index
	assert.Greater(t, DefaultSortOrder(2, 1), DefaultSortOrder(1, 999))
}
