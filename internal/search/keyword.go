package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/backend"
	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/logging"
)

// KeywordSearcher ranks backend candidates with BM25, after pulling
// field:value filters out of the query. Purely filter-based queries skip
// ranking and score every candidate 1.0.
type KeywordSearcher struct {
	backend       backend.Backend
	maxCandidates int
	overFetch     int
	logger        *logging.Logger
}

// NewKeywordSearcher creates a keyword searcher.
func NewKeywordSearcher(be backend.Backend, cfg config.SearchConfig, logger *logging.Logger) *KeywordSearcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &KeywordSearcher{
		backend:       be,
		maxCandidates: cfg.MaxCandidates,
		overFetch:     cfg.OverFetchFactor,
		logger:        logger,
	}
}

// Search parses field filters, fetches candidates, and ranks them.
func (s *KeywordSearcher) Search(ctx context.Context, query string, limit int, projectIDs []string) ([]backend.Hit, error) {
	parsed := parseFieldQuery(query)
	if len(parsed.Ignored) > 0 {
		s.logger.Warn(ctx, "ignoring unsupported field filters",
			zap.Strings("fields", parsed.Ignored),
		)
	}

	filter := buildKeywordFilter(parsed, projectIDs)

	fetchLimit := limit * s.overFetch
	if fetchLimit > s.maxCandidates {
		fetchLimit = s.maxCandidates
	}
	if fetchLimit < limit {
		fetchLimit = limit
	}

	candidates, err := s.backend.Scroll(ctx, filter, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching keyword candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []backend.Hit{}, nil
	}

	if parsed.filterOnly() {
		// Filter-only mode: relevance is meaningless, every candidate
		// matches equally.
		out := candidates
		if len(out) > limit {
			out = out[:limit]
		}
		scored := make([]backend.Hit, len(out))
		for i, hit := range out {
			hit.Score = 1.0
			scored[i] = hit
		}
		s.logger.Debug(ctx, "filter-only keyword search",
			zap.Int("results", len(scored)),
		)
		return scored, nil
	}

	text := parsed.Residual
	if text == "" {
		text = query
	}
	queryTokens := tokenize(text)

	texts := make([]string, len(candidates))
	for i, hit := range candidates {
		texts[i] = hit.Content
	}
	corpus := newBM25Corpus(texts)

	type ranked struct {
		hit   backend.Hit
		score float64
		index int
	}
	rankedHits := make([]ranked, len(candidates))
	for i, hit := range candidates {
		hit.Score = corpus.score(queryTokens, i)
		rankedHits[i] = ranked{hit: hit, score: hit.Score, index: i}
	}

	// Stable ordering: score descending, then original candidate order.
	sort.SliceStable(rankedHits, func(i, j int) bool {
		if rankedHits[i].score != rankedHits[j].score {
			return rankedHits[i].score > rankedHits[j].score
		}
		return rankedHits[i].index < rankedHits[j].index
	})

	out := make([]backend.Hit, 0, limit)
	for _, r := range rankedHits {
		if r.score <= 0 {
			break
		}
		out = append(out, r.hit)
		if len(out) == limit {
			break
		}
	}

	s.logger.Debug(ctx, "keyword search complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(out)),
		zap.String("residual", parsed.Residual),
	)
	return out, nil
}

// buildKeywordFilter converts parsed field filters plus the project list
// into a backend filter.
func buildKeywordFilter(parsed parsedQuery, projectIDs []string) *backend.Filter {
	filter := &backend.Filter{ProjectIDs: projectIDs}
	for _, f := range parsed.Fields {
		if path, key, ok := strings.Cut(f.Name, "."); ok {
			filter.Nested = append(filter.Nested, backend.NestedCondition{
				Path:  path,
				Key:   key,
				Value: f.Value,
			})
			continue
		}
		filter.Equals = append(filter.Equals, backend.Condition{Key: f.Name, Value: f.Value})
	}
	return filter
}
