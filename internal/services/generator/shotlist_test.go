package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShotList(t *testing.T) {
	raw := `{"shots":[
		{"scene":1,"shot_index":1,"duration_sec":5,"camera":"wide","prompt_positive":"castle at dawn"},
		{"scene":1,"shot_index":2,"duration_sec":7,"prompt_positive":"knight rides out"}
	]}`

	shots, err := parseShotList(raw)
	require.NoError(t, err)
	require.Len(t, shots, 2)
	assert.Equal(t, 1.0, shots[0].Scene)
	assert.Equal(t, "castle at dawn", shots[0].PromptPositive)
	assert.Equal(t, 7.0, shots[1].DurationSec)
}

func TestParseShotList_CodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "plain fence",
			raw:  "```\n{\"shots\":[{\"scene\":1,\"shot_index\":1,\"prompt_positive\":\"a\"}]}\n```",
		},
		{
			name: "json fence",
			raw:  "```json\n{\"shots\":[{\"scene\":1,\"shot_index\":1,\"prompt_positive\":\"a\"}]}\n```",
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\n  ```json\n{\"shots\":[{\"scene\":1,\"shot_index\":1,\"prompt_positive\":\"a\"}]}\n```  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shots, err := parseShotList(tt.raw)
			require.NoError(t, err)
			assert.Len(t, shots, 1)
		})
	}
}

func TestParseShotList_DropsShotsWithoutPrompt(t *testing.T) {
	raw := `{"shots":[
		{"scene":1,"shot_index":1,"prompt_positive":""},
		{"scene":1,"shot_index":2,"prompt_positive":"   "},
		{"scene":1,"shot_index":3,"prompt_positive":"usable"}
	]}`

	shots, err := parseShotList(raw)
	require.NoError(t, err)
	require.Len(t, shots, 1)
	assert.Equal(t, "usable", shots[0].PromptPositive)
}

func TestParseShotList_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "here is your storyboard!"},
		{name: "empty shots", raw: `{"shots":[]}`},
		{name: "all shots unusable", raw: `{"shots":[{"scene":1,"shot_index":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseShotList(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseShotList_NonIntegralIndices(t *testing.T) {
	raw := `{"shots":[{"scene":2.7,"shot_index":1.2,"duration_sec":4,"prompt_positive":"a"}]}`

	shots, err := parseShotList(raw)
	require.NoError(t, err)
	require.Len(t, shots, 1)
	// Wire indices stay float; truncation happens on scene conversion
	assert.Equal(t, 2.7, shots[0].Scene)
}
