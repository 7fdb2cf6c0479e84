package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/garyjia/asset-tracker/internal/application/port"
)

type countingGenerator struct {
	calls int
}

func (c *countingGenerator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingGenerator) Model() string { return "counting" }

func TestLimitedGenerator(t *testing.T) {
	t.Run("nil limiter passes through", func(t *testing.T) {
		inner := &countingGenerator{}
		g := NewGenerator(nil, inner)

		out, err := g.Generate(context.Background(), port.GenerateRequest{})

		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, "counting", g.Model())
	})

	t.Run("waiting past the deadline fails without calling", func(t *testing.T) {
		inner := &countingGenerator{}
		g := NewGenerator(rate.NewLimiter(rate.Every(time.Hour), 1), inner)

		_, err := g.Generate(context.Background(), port.GenerateRequest{})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = g.Generate(ctx, port.GenerateRequest{})

		assert.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestPerMinute(t *testing.T) {
	assert.Nil(t, PerMinute(0))

	l := PerMinute(30)
	require.NotNil(t, l)
	assert.Equal(t, rate.Every(2*time.Second), l.Limit())
	assert.Equal(t, 1, l.Burst())
}
