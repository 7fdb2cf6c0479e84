// Package limiter spaces out calls to a model backend.
package limiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/garyjia/asset-tracker/internal/application/port"
)

type limitedGenerator struct {
	limiter  *rate.Limiter
	provider port.Generator
}

// NewGenerator wraps p so that each Generate waits for a token from l.
// A nil limiter passes calls straight through.
func NewGenerator(l *rate.Limiter, p port.Generator) port.Generator {
	return &limitedGenerator{
		limiter:  l,
		provider: p,
	}
}

// PerMinute returns a limiter allowing n calls per minute with a burst of one,
// or nil when n is not positive
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

func (g *limitedGenerator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}
	return g.provider.Generate(ctx, req)
}

func (g *limitedGenerator) Model() string {
	return g.provider.Model()
}
