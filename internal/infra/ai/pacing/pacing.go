// Package pacing spaces out calls to the AI provider so a burst of
// uploads does not trip the provider's per-minute quota.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

type Generator struct {
	next    analysis.Generator
	limiter *rate.Limiter
}

// Wrap returns next unchanged when rpm <= 0.
func Wrap(next analysis.Generator, rpm, burst int) analysis.Generator {
	if rpm <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Generator{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst),
	}
}

func (g *Generator) Generate(ctx context.Context, req analysis.GenerateRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.next.Generate(ctx, req)
}
