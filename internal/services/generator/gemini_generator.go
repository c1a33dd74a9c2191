package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
)

// GeminiGenerator implements ContentGenerator using the Google Gemini API
type GeminiGenerator struct {
	*base
	config *common.GeminiConfig
	logger arbor.ILogger
	client *genai.Client
}

// NewGeminiGenerator creates a new Gemini content generator
func NewGeminiGenerator(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (interfaces.ContentGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set SHOWFORGE_GEMINI_API_KEY or gemini.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "gemini-3-flash-preview"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &GeminiGenerator{
		config: config,
		logger: logger,
		client: client,
	}
	g.base = newBase(g,
		common.ParseDurationOr(config.RateLimit, 4*time.Second),
		common.ParseDurationOr(config.Timeout, 5*time.Minute))

	logger.Debug().
		Str("model", config.Model).
		Float32("temperature", config.Temperature).
		Msg("Gemini content generator initialized")

	return g, nil
}

func (g *GeminiGenerator) name() string {
	return "gemini"
}

func (g *GeminiGenerator) complete(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.config.Temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini API")
	}

	g.logger.Debug().
		Int("response_length", response.Len()).
		Dur("duration", time.Since(start)).
		Msg("Gemini completion finished")

	return response.String(), nil
}
