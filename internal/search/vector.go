package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/backend"
	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/embeddings"
	"github.com/fyrsmithlabs/searchd/internal/logging"
)

// VectorSearcher embeds a query and performs ANN retrieval, caching result
// lists by (query, limit, project filter, score floor, collection).
type VectorSearcher struct {
	backend    backend.Backend
	embedder   embeddings.Embedder
	cache      *resultCache
	minScore   float64
	collection string
	logger     *logging.Logger
}

// NewVectorSearcher creates a vector searcher.
func NewVectorSearcher(be backend.Backend, embedder embeddings.Embedder, cfg config.SearchConfig, collection string, logger *logging.Logger) *VectorSearcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &VectorSearcher{
		backend:    be,
		embedder:   embedder,
		cache:      newResultCache(cfg.CacheTTL, cfg.CacheCapacity),
		minScore:   cfg.MinScore,
		collection: collection,
		logger:     logger,
	}
}

// Search returns up to limit ANN hits above the similarity floor. A cache
// hit within TTL skips the backend entirely.
func (s *VectorSearcher) Search(ctx context.Context, query string, limit int, projectIDs []string) ([]backend.Hit, error) {
	key := cacheKey(query, limit, projectIDs, s.minScore, s.collection)
	if cached := s.cache.get(key); cached != nil {
		s.logger.Debug(ctx, "vector cache hit", zap.Int("results", len(cached)))
		return cached, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var filter *backend.Filter
	if len(projectIDs) > 0 {
		filter = &backend.Filter{ProjectIDs: projectIDs}
	}

	hits, err := s.backend.QueryVector(ctx, vector, limit, s.minScore, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	s.cache.put(key, hits)
	s.logger.Debug(ctx, "vector search complete",
		zap.Int("results", len(hits)),
		zap.Int("limit", limit),
	)
	return hits, nil
}

// CacheStats returns cumulative cache hit/miss counters.
func (s *VectorSearcher) CacheStats() (hits, misses uint64) {
	return s.cache.stats()
}
