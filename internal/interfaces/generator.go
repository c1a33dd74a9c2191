package interfaces

import (
	"context"

	"github.com/showforge/showforge/internal/models"
)

// GenerationContext carries everything the AI generator needs to produce
// one episode's artifacts: show identity, continuity, and novelty inputs.
type GenerationContext struct {
	Show          *models.Show
	Characters    []models.Character
	Production    *models.ProductionProfile
	UsedMorals    []string
	PriorSummaries []string
	EpisodeNumber int

	// Filled progressively as the sequential phase advances
	Moral   string
	Title   string
	Script  string
	Summary string
}

// ContentGenerator produces episode artifacts from prompt context.
// Each call is a distinct network-bound operation; callers sequence them
// because later steps consume earlier outputs.
type ContentGenerator interface {
	GenerateMoral(ctx context.Context, gc *GenerationContext) (string, error)
	GenerateTitle(ctx context.Context, gc *GenerationContext) (string, error)
	GenerateScript(ctx context.Context, gc *GenerationContext) (string, error)
	GenerateSummary(ctx context.Context, gc *GenerationContext) (string, error)
	GenerateStoryboard(ctx context.Context, gc *GenerationContext) ([]models.Shot, error)
	ProviderName() string
}
