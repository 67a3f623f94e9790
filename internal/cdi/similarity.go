package cdi

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/embeddings"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// semanticSnippetLen bounds how much text the semantic metric embeds.
const semanticSnippetLen = 500

// SimilarityCalculator computes multi-metric similarity between two
// documents. The embedder is optional; without it the semantic metric
// scores 0.
type SimilarityCalculator struct {
	embedder embeddings.Embedder
	logger   *logging.Logger
}

// NewSimilarityCalculator creates a calculator. embedder may be nil.
func NewSimilarityCalculator(embedder embeddings.Embedder, logger *logging.Logger) *SimilarityCalculator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SimilarityCalculator{embedder: embedder, logger: logger}
}

// Calculate scores a document pair over the requested metrics (nil means
// DefaultMetrics). The combined score is the weighted average over the
// requested metrics only.
func (c *SimilarityCalculator) Calculate(ctx context.Context, a, b *schema.SearchResult, metrics []Metric) DocumentSimilarity {
	if len(metrics) == 0 {
		metrics = DefaultMetrics
	}

	sim := DocumentSimilarity{
		Doc1ID:       a.DocumentID,
		Doc2ID:       b.DocumentID,
		MetricScores: make(map[Metric]float64, len(metrics)),
	}

	var weightedSum, weightTotal float64
	for _, metric := range metrics {
		var score float64
		switch metric {
		case MetricEntityOverlap:
			score = jaccardSimilarity(a.Entities(), b.Entities())
		case MetricTopicOverlap:
			score = jaccardSimilarity(a.Topics(), b.Topics())
		case MetricMetadata:
			score = metadataSimilarity(a, b)
		case MetricContentFeatures:
			score = contentFeatureSimilarity(a, b)
		case MetricHierarchical:
			score = hierarchicalSimilarity(a, b)
		case MetricSemantic:
			score = c.semanticSimilarity(ctx, a, b)
		default:
			continue
		}
		sim.MetricScores[metric] = score
		weightedSum += metricWeights[metric] * score
		weightTotal += metricWeights[metric]
	}
	if weightTotal > 0 {
		sim.Score = weightedSum / weightTotal
	}

	sim.SharedEntities = sharedTerms(a.Entities(), b.Entities())
	sim.SharedTopics = sharedTerms(a.Topics(), b.Topics())
	sim.RelationshipType = classifyRelationship(a, b, sim.MetricScores)
	return sim
}

// jaccardSimilarity is |A∩B| / |A∪B| over lower-cased term sets, 0 when
// either side is empty. Symmetric by construction.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := termSet(a)
	setB := termSet(b)

	intersection := 0
	for term := range setA {
		if setB[term] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// metadataSimilarity is the unweighted mean of whichever metadata
// agreements are computable for the pair.
func metadataSimilarity(a, b *schema.SearchResult) float64 {
	var parts []float64

	if pa, ok := a.ProjectID(); ok {
		if pb, ok := b.ProjectID(); ok {
			if pa == pb {
				parts = append(parts, 1.0)
			} else {
				parts = append(parts, 0.0)
			}
		}
	}

	if a.SourceType == b.SourceType {
		parts = append(parts, 0.5)
	} else {
		parts = append(parts, 0.0)
	}

	if a.ContentAnalysis != nil && b.ContentAnalysis != nil {
		agreements := 0
		if a.ContentAnalysis.HasCodeBlocks == b.ContentAnalysis.HasCodeBlocks {
			agreements++
		}
		if a.ContentAnalysis.HasTables == b.ContentAnalysis.HasTables {
			agreements++
		}
		if a.ContentAnalysis.HasImages == b.ContentAnalysis.HasImages {
			agreements++
		}
		if a.ContentAnalysis.HasLinks == b.ContentAnalysis.HasLinks {
			agreements++
		}
		parts = append(parts, float64(agreements)/4)
	}

	if wa, ok := a.WordCount(); ok {
		if wb, ok := b.WordCount(); ok && wa > 0 && wb > 0 {
			parts = append(parts, ratioMinMax(float64(wa), float64(wb)))
		}
	}

	return mean(parts)
}

// contentFeatureSimilarity averages read-time ratio and depth proximity.
func contentFeatureSimilarity(a, b *schema.SearchResult) float64 {
	var parts []float64

	if ra, ok := a.ReadTime(); ok {
		if rb, ok := b.ReadTime(); ok && ra > 0 && rb > 0 {
			parts = append(parts, ratioMinMax(ra, rb))
		}
	}

	if da, ok := a.Depth(); ok {
		if db, ok := b.Depth(); ok {
			proximity := 1 - math.Abs(float64(da-db))/5
			if proximity < 0 {
				proximity = 0
			}
			parts = append(parts, proximity)
		}
	}

	return mean(parts)
}

// hierarchicalSimilarity scores structural closeness: direct parent/child
// 1.0, siblings 0.8, otherwise breadcrumb-prefix overlap.
func hierarchicalSimilarity(a, b *schema.SearchResult) float64 {
	if pa, ok := a.ParentID(); ok && pa == b.DocumentID {
		return 1.0
	}
	if pb, ok := b.ParentID(); ok && pb == a.DocumentID {
		return 1.0
	}

	if pa, okA := a.ParentID(); okA {
		if pb, okB := b.ParentID(); okB && pa == pb {
			return 0.8
		}
	}

	ba, okA := a.Breadcrumb()
	bb, okB := b.Breadcrumb()
	if !okA || !okB {
		return 0
	}
	segsA := breadcrumbSegments(ba)
	segsB := breadcrumbSegments(bb)
	if len(segsA) == 0 || len(segsB) == 0 {
		return 0
	}
	shared := 0
	for i := 0; i < len(segsA) && i < len(segsB); i++ {
		if segsA[i] != segsB[i] {
			break
		}
		shared++
	}
	longest := len(segsA)
	if len(segsB) > longest {
		longest = len(segsB)
	}
	return float64(shared) / float64(longest)
}

// semanticSimilarity embeds the first 500 characters of each text. Any
// analyzer failure yields 0.0, logged and non-fatal.
func (c *SimilarityCalculator) semanticSimilarity(ctx context.Context, a, b *schema.SearchResult) float64 {
	if c.embedder == nil {
		return 0
	}
	va, err := c.embedder.EmbedQuery(ctx, snippet(a.Text))
	if err != nil {
		c.logger.Debug(ctx, "semantic similarity unavailable", zap.Error(err))
		return 0
	}
	vb, err := c.embedder.EmbedQuery(ctx, snippet(b.Text))
	if err != nil {
		c.logger.Debug(ctx, "semantic similarity unavailable", zap.Error(err))
		return 0
	}
	return embeddings.CosineSimilarity(va, vb)
}

// classifyRelationship picks the relationship type by priority.
func classifyRelationship(a, b *schema.SearchResult, scores map[Metric]float64) RelationshipType {
	if scores[MetricHierarchical] > 0.7 {
		return RelationshipHierarchical
	}
	if len(a.References()) > 0 || len(b.References()) > 0 {
		return RelationshipCrossRef
	}
	if pa, ok := a.ProjectID(); ok {
		if pb, ok := b.ProjectID(); ok && pa == pb {
			return RelationshipProject
		}
	}
	return RelationshipSemantic
}

func termSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = true
		}
	}
	return set
}

// sharedTerms returns the case-insensitive intersection, preserving the
// first list's casing and order.
func sharedTerms(a, b []string) []string {
	setB := termSet(b)
	seen := make(map[string]bool)
	var shared []string
	for _, t := range a {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] || !setB[key] {
			continue
		}
		seen[key] = true
		shared = append(shared, t)
	}
	return shared
}

func breadcrumbSegments(breadcrumb string) []string {
	raw := strings.Split(breadcrumb, ">")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func ratioMinMax(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b == 0 {
		return 0
	}
	return a / b
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func snippet(text string) string {
	if len(text) > semanticSnippetLen {
		return text[:semanticSnippetLen]
	}
	return text
}
