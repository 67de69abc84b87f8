package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) ModelName() string {
	return "counting"
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestLruEmbedderCachesByText(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	first, err := embedder.Embed(ctx, "python developer")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)

	second, err := embedder.Embed(ctx, "python developer")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)
	require.Equal(t, first, second)

	_, err = embedder.Embed(ctx, "java developer")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestLruEmbedderReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	first, err := embedder.Embed(ctx, "text")
	require.NoError(t, err)
	first[0] = -999

	second, err := embedder.Embed(ctx, "text")
	require.NoError(t, err)
	require.NotEqual(t, float32(-999), second[0])
}

func TestLruEmbedderDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("provider down")}
	embedder := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	_, err := embedder.Embed(ctx, "text")
	require.Error(t, err)

	inner.err = nil
	_, err = embedder.Embed(ctx, "text")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestWrapLruCacheToEmbedderDisabled(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 16, time.Minute))
}
