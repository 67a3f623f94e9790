package search

import (
	"context"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/searchd/internal/embeddings"
)

// SemanticBooster scores the affinity between a query and a document's
// extracted entities/topics, returning a boost in [0, 0.15].
type SemanticBooster interface {
	Boost(ctx context.Context, query string, entities, topics []string) (float64, error)
}

// EmbeddingBooster implements SemanticBooster with embedding-space
// similarity. Query and term-list embeddings are cached for the booster's
// lifetime, which is the pipeline's: the term vocabulary across a result
// set is small and repetitive.
type EmbeddingBooster struct {
	embedder embeddings.Embedder

	mu    sync.Mutex
	cache map[string][]float32
}

// NewEmbeddingBooster creates an embedding-backed semantic booster.
func NewEmbeddingBooster(embedder embeddings.Embedder) *EmbeddingBooster {
	return &EmbeddingBooster{
		embedder: embedder,
		cache:    make(map[string][]float32),
	}
}

// Boost embeds the query and the joined entity/topic terms and maps their
// cosine similarity into the boost range.
func (b *EmbeddingBooster) Boost(ctx context.Context, query string, entities, topics []string) (float64, error) {
	terms := strings.Join(append(append([]string{}, entities...), topics...), " ")
	if strings.TrimSpace(terms) == "" {
		return 0, nil
	}

	queryVec, err := b.embed(ctx, query)
	if err != nil {
		return 0, err
	}
	termsVec, err := b.embed(ctx, terms)
	if err != nil {
		return 0, err
	}

	return 0.15 * embeddings.CosineSimilarity(queryVec, termsVec), nil
}

func (b *EmbeddingBooster) embed(ctx context.Context, text string) ([]float32, error) {
	b.mu.Lock()
	cached, ok := b.cache[text]
	b.mu.Unlock()
	if ok {
		return cached, nil
	}

	vec, err := b.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.cache[text] = vec
	b.mu.Unlock()
	return vec, nil
}
