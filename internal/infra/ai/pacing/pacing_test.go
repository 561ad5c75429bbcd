package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

type countGen struct{ n int }

func (c *countGen) Generate(context.Context, analysis.GenerateRequest) (string, error) {
	c.n++
	return "{}", nil
}

func TestWrapDisabled(t *testing.T) {
	g := &countGen{}
	assert.Same(t, g, Wrap(g, 0, 0))
}

func TestWaitHonoursContext(t *testing.T) {
	g := &countGen{}
	paced := Wrap(g, 1, 1)

	_, err := paced.Generate(context.Background(), analysis.GenerateRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = paced.Generate(ctx, analysis.GenerateRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, g.n)
}
