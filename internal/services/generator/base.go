package generator

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// completer is the provider-specific piece: one prompt in, one text
// response out. Everything above it (prompt construction, shot-list
// parsing, rate limiting) is shared across providers.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

// base implements ContentGenerator over any completer
type base struct {
	completer completer
	limiter   *rate.Limiter
	timeout   time.Duration
}

func newBase(c completer, minInterval, timeout time.Duration) *base {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &base{
		completer: c,
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
		timeout:   timeout,
	}
}

func (b *base) generate(ctx context.Context, user string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.completer.complete(callCtx, systemPrompt, user)
	if err != nil {
		return "", common.WrapError(common.ErrUpstreamAI, b.completer.name()+" generation failed", err)
	}
	return strings.TrimSpace(text), nil
}

func (b *base) GenerateMoral(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	return b.generate(ctx, buildMoralPrompt(gc))
}

func (b *base) GenerateTitle(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	title, err := b.generate(ctx, buildTitlePrompt(gc))
	if err != nil {
		return "", err
	}
	return strings.Trim(title, `"`), nil
}

func (b *base) GenerateScript(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	return b.generate(ctx, buildScriptPrompt(gc))
}

func (b *base) GenerateSummary(ctx context.Context, gc *interfaces.GenerationContext) (string, error) {
	return b.generate(ctx, buildSummaryPrompt(gc))
}

func (b *base) GenerateStoryboard(ctx context.Context, gc *interfaces.GenerationContext) ([]models.Shot, error) {
	raw, err := b.generate(ctx, buildStoryboardPrompt(gc))
	if err != nil {
		return nil, err
	}

	shots, err := parseShotList(raw)
	if err != nil {
		return nil, common.WrapError(common.ErrUpstreamAI, "storyboard response unusable", err)
	}
	return shots, nil
}

func (b *base) ProviderName() string {
	return b.completer.name()
}
