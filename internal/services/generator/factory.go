package generator

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
)

// NewContentGenerator creates the configured provider implementation
func NewContentGenerator(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.ContentGenerator, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderClaude
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing content generator")

	switch provider {
	case common.LLMProviderClaude:
		return NewClaudeGenerator(&cfg.Claude, logger)
	case common.LLMProviderGemini:
		return NewGeminiGenerator(ctx, &cfg.Gemini, logger)
	default:
		return nil, fmt.Errorf("unsupported content provider '%s': must be 'claude' or 'gemini'", provider)
	}
}
