package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/searchd/internal/backend"
	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// Request is one hybrid search request.
type Request struct {
	Query       string
	SourceTypes []string
	ProjectIDs  []string
	Limit       int
}

// Pipeline orchestrates a hybrid search: intent classification, concurrent
// vector and keyword retrieval, then combination. The pipeline is safe for
// concurrent use; all per-request scoring state lives in the QueryContext.
type Pipeline struct {
	vector     *VectorSearcher
	keyword    *KeywordSearcher
	combiner   *Combiner
	classifier *Classifier
	base       AdaptiveConfig
	logger     *logging.Logger
}

// NewPipeline wires the pipeline from its components. The baseline weights
// come from config; intents override them per request.
func NewPipeline(vector *VectorSearcher, keyword *KeywordSearcher, combiner *Combiner, cfg config.SearchConfig, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		vector:     vector,
		keyword:    keyword,
		combiner:   combiner,
		classifier: NewClassifier(),
		base: AdaptiveConfig{
			VectorWeight:  cfg.VectorWeight,
			KeywordWeight: cfg.KeywordWeight,
			MinScore:      cfg.MinScore,
			LimitCap:      50,
		},
		logger: logger,
	}
}

// Search runs the hybrid pipeline. Vector and keyword retrieval fan out
// concurrently; either backend failing fails the request, since no
// meaningful partial result exists at this level.
func (p *Pipeline) Search(ctx context.Context, req Request) ([]*schema.SearchResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	start := time.Now()
	ctx = logging.ContextWithRequestID(ctx, uuid.NewString())
	ctx = logging.ContextWithQuery(ctx, req.Query)

	intent, confidence := p.classifier.Classify(req.Query)
	qc := QueryContext{
		Query:      req.Query,
		Intent:     intent,
		Confidence: confidence,
		Config:     AdaptiveConfigFor(intent, p.base),
	}
	searchRequests.WithLabelValues(intent.String()).Inc()

	limit := req.Limit
	if qc.Config.LimitCap > 0 && limit > qc.Config.LimitCap {
		limit = qc.Config.LimitCap
	}

	// Over-fetch both sides so the combiner has room to filter and
	// diversify.
	fetchLimit := limit * 3

	var vectorHits, keywordHits []backend.Hit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := p.vector.Search(gctx, req.Query, fetchLimit, req.ProjectIDs)
		if err != nil {
			searchErrors.WithLabelValues("vector").Inc()
			return fmt.Errorf("vector search: %w", err)
		}
		vectorHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := p.keyword.Search(gctx, req.Query, fetchLimit, req.ProjectIDs)
		if err != nil {
			searchErrors.WithLabelValues("keyword").Inc()
			return fmt.Errorf("keyword search: %w", err)
		}
		keywordHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := p.combiner.Combine(ctx, vectorHits, keywordHits, qc, limit, req.SourceTypes)

	searchDuration.Observe(time.Since(start).Seconds())
	p.logger.Info(ctx, "search complete",
		zap.String("intent", intent.String()),
		zap.Float64("confidence", confidence),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
