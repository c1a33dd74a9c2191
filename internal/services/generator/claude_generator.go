package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
)

// ClaudeGenerator implements ContentGenerator using the Anthropic Claude API
type ClaudeGenerator struct {
	*base
	config *common.ClaudeConfig
	logger arbor.ILogger
	client anthropic.Client
}

// NewClaudeGenerator creates a new Claude content generator
func NewClaudeGenerator(config *common.ClaudeConfig, logger arbor.ILogger) (interfaces.ContentGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY, SHOWFORGE_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 8192
	}

	g := &ClaudeGenerator{
		config: config,
		logger: logger,
		client: anthropic.NewClient(option.WithAPIKey(config.APIKey)),
	}
	g.base = newBase(g,
		common.ParseDurationOr(config.RateLimit, time.Second),
		common.ParseDurationOr(config.Timeout, 5*time.Minute))

	logger.Debug().
		Str("model", config.Model).
		Int("max_tokens", config.MaxTokens).
		Float32("temperature", config.Temperature).
		Msg("Claude content generator initialized")

	return g, nil
}

func (g *ClaudeGenerator) name() string {
	return "claude"
}

func (g *ClaudeGenerator) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.config.Model),
		MaxTokens: int64(g.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}

	if g.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(g.config.Temperature))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	start := time.Now()
	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	g.logger.Debug().
		Int("response_length", response.Len()).
		Dur("duration", time.Since(start)).
		Msg("Claude completion finished")

	return response.String(), nil
}
