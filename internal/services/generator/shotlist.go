package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/showforge/showforge/internal/models"
)

// parseShotList decodes an AI shot-list response. The model sometimes
// wraps JSON in markdown code fences, so those are stripped first.
// Shots without a positive prompt are dropped rather than rejected.
func parseShotList(raw string) ([]models.Shot, error) {
	cleaned := stripCodeFences(raw)

	var resp models.ShotListResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse shot list JSON: %w", err)
	}

	shots := make([]models.Shot, 0, len(resp.Shots))
	for _, shot := range resp.Shots {
		if strings.TrimSpace(shot.PromptPositive) == "" {
			continue
		}
		shots = append(shots, shot)
	}

	if len(shots) == 0 {
		return nil, fmt.Errorf("shot list contains no usable shots")
	}
	return shots, nil
}

// stripCodeFences removes a surrounding markdown code fence if present
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the opening fence
	if idx := strings.Index(s, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || firstLine == "json" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
