package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	fakeEmbedder
	calls int
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.fakeEmbedder.EmbedQuery(ctx, text)
}

func TestEmbeddingBoosterIdenticalVectors(t *testing.T) {
	b := NewEmbeddingBooster(&fakeEmbedder{vector: []float32{0.6, 0.8}})

	boost, err := b.Boost(context.Background(), "postgres", []string{"postgres"}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, boost, 1e-6, "identical vectors max out the boost range")
}

func TestEmbeddingBoosterNoTerms(t *testing.T) {
	embedder := &countingEmbedder{}
	b := NewEmbeddingBooster(embedder)

	boost, err := b.Boost(context.Background(), "query", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, boost)
	assert.Zero(t, embedder.calls, "no terms means no embedding calls")
}

func TestEmbeddingBoosterCachesVectors(t *testing.T) {
	embedder := &countingEmbedder{fakeEmbedder: fakeEmbedder{vector: []float32{1, 0}}}
	b := NewEmbeddingBooster(embedder)

	_, err := b.Boost(context.Background(), "query", []string{"redis"}, nil)
	require.NoError(t, err)
	_, err = b.Boost(context.Background(), "query", []string{"redis"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.calls, "repeat terms are served from the vector cache")
}

func TestEmbeddingBoosterPropagatesError(t *testing.T) {
	b := NewEmbeddingBooster(&fakeEmbedder{err: errors.New("down")})
	_, err := b.Boost(context.Background(), "query", []string{"redis"}, nil)
	assert.Error(t, err)
}
