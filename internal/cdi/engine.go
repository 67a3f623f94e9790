package cdi

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
	"github.com/fyrsmithlabs/searchd/internal/search"
)

// SimilarDocument is one FindSimilar match with its score and the reasons
// behind it.
type SimilarDocument struct {
	Document *schema.SearchResult `json:"document"`
	Score    float64              `json:"score"`
	Reasons  []string             `json:"reasons"`
}

// RelationshipAnalysis summarizes how a result set hangs together.
type RelationshipAnalysis struct {
	Summary           string            `json:"summary"`
	Clusters          []DocumentCluster `json:"clusters"`
	RelationshipCount int               `json:"relationship_count"`
	Network           *CitationNetwork  `json:"network"`
}

// ClusterReport is the full clustering result: the clusters, run metadata,
// and the strongest inter-cluster relationships.
type ClusterReport struct {
	Clusters []DocumentCluster  `json:"clusters"`
	Metadata ClusterRunMetadata `json:"metadata"`
	// Relationships holds one entry per cluster pair whose representative
	// documents score above 0.3.
	Relationships []DocumentSimilarity `json:"relationships"`
}

// ClusterRunMetadata describes a clustering run.
type ClusterRunMetadata struct {
	Strategy          ClusteringStrategy `json:"strategy"`
	DocumentCount     int                `json:"document_count"`
	ClusterCount      int                `json:"cluster_count"`
	UnclusteredCount  int                `json:"unclustered_count"`
	MeanCoherence     float64            `json:"mean_coherence"`
	UnresolvedMembers int                `json:"unresolved_members"`
}

// Engine is the cross-document intelligence facade: hybrid search plus the
// five analytic operations. Every analysis is stateless over the supplied
// documents; only Search can fail.
type Engine struct {
	pipeline      *search.Pipeline
	similarity    *SimilarityCalculator
	clusters      *ClusterAnalyzer
	citations     *CitationAnalyzer
	complementary *ComplementaryFinder
	conflicts     *ConflictDetector
	logger        *logging.Logger
}

// NewEngine assembles the engine from its components.
func NewEngine(pipeline *search.Pipeline, similarity *SimilarityCalculator, clusters *ClusterAnalyzer, citations *CitationAnalyzer, complementary *ComplementaryFinder, conflicts *ConflictDetector, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		pipeline:      pipeline,
		similarity:    similarity,
		clusters:      clusters,
		citations:     citations,
		complementary: complementary,
		conflicts:     conflicts,
		logger:        logger,
	}
}

// Search runs the hybrid search pipeline.
func (e *Engine) Search(ctx context.Context, req search.Request) ([]*schema.SearchResult, error) {
	return e.pipeline.Search(ctx, req)
}

// AnalyzeRelationships clusters the documents, builds the citation
// network, and summarizes both.
func (e *Engine) AnalyzeRelationships(ctx context.Context, documents []*schema.SearchResult) RelationshipAnalysis {
	clusters := e.clusters.Cluster(ctx, documents, StrategyMixed, 0, 0)
	network := e.citations.Build(ctx, documents)

	analysis := RelationshipAnalysis{
		Clusters:          clusters,
		RelationshipCount: len(network.Edges),
		Network:           network,
	}
	analysis.Summary = fmt.Sprintf("%d documents form %d clusters with %d reference relationships",
		len(documents), len(clusters), len(network.Edges))
	return analysis
}

// FindSimilar ranks candidates by similarity to the target over the
// requested metrics (nil means defaults) and returns the top maxSimilar.
func (e *Engine) FindSimilar(ctx context.Context, target *schema.SearchResult, candidates []*schema.SearchResult, metrics []Metric, maxSimilar int) []SimilarDocument {
	if maxSimilar <= 0 {
		maxSimilar = 5
	}

	similar := make([]SimilarDocument, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == target || (candidate.DocumentID != "" && candidate.DocumentID == target.DocumentID) {
			continue
		}
		sim := e.similarity.Calculate(ctx, target, candidate, metrics)
		if sim.Score <= 0 {
			continue
		}
		similar = append(similar, SimilarDocument{
			Document: candidate,
			Score:    sim.Score,
			Reasons:  similarityReasons(sim),
		})
	}

	sort.SliceStable(similar, func(i, j int) bool { return similar[i].Score > similar[j].Score })
	if len(similar) > maxSimilar {
		similar = similar[:maxSimilar]
	}
	return similar
}

// DetectConflicts finds contradictory statements between documents.
func (e *Engine) DetectConflicts(ctx context.Context, documents []*schema.SearchResult) ConflictAnalysis {
	return e.conflicts.Detect(ctx, documents)
}

// FindComplementary recommends content that complements the target.
func (e *Engine) FindComplementary(ctx context.Context, target *schema.SearchResult, candidates []*schema.SearchResult, maxRecommendations int) ComplementaryContent {
	return e.complementary.Find(ctx, target, candidates, maxRecommendations)
}

// ClusterDocuments clusters the documents and reports run metadata plus
// the strongest inter-cluster relationships. Cluster member keys are
// re-resolved against the supplied document list; misses are logged and
// omitted while ExpectedMembers keeps the original count.
func (e *Engine) ClusterDocuments(ctx context.Context, documents []*schema.SearchResult, strategy ClusteringStrategy, maxClusters, minClusterSize int) ClusterReport {
	clusters := e.clusters.Cluster(ctx, documents, strategy, maxClusters, minClusterSize)

	byKey := make(map[string]*schema.SearchResult, len(documents))
	for _, doc := range documents {
		byKey[doc.DocKey()] = doc
	}

	clustered := 0
	unresolved := 0
	var coherenceSum float64
	for i := range clusters {
		resolved := clusters[i].DocumentKeys[:0]
		for _, key := range clusters[i].DocumentKeys {
			if _, ok := byKey[key]; !ok {
				unresolved++
				e.logger.Warn(ctx, "cluster member missing from result set",
					zap.String("cluster", clusters[i].Name),
					zap.String("document_key", key),
				)
				continue
			}
			resolved = append(resolved, key)
		}
		clusters[i].DocumentKeys = resolved
		clusters[i].ResolvedMembers = len(resolved)
		clustered += len(resolved)
		coherenceSum += clusters[i].CoherenceScore
	}

	if !strategy.Valid() {
		strategy = StrategyMixed
	}
	report := ClusterReport{
		Clusters: clusters,
		Metadata: ClusterRunMetadata{
			Strategy:          strategy,
			DocumentCount:     len(documents),
			ClusterCount:      len(clusters),
			UnclusteredCount:  len(documents) - clustered,
			UnresolvedMembers: unresolved,
		},
	}
	if len(clusters) > 0 {
		report.Metadata.MeanCoherence = coherenceSum / float64(len(clusters))
	}

	report.Relationships = e.clusterRelationships(ctx, clusters, byKey)
	return report
}

// clusterRelationships compares cluster representatives pairwise and keeps
// pairs scoring above 0.3.
func (e *Engine) clusterRelationships(ctx context.Context, clusters []DocumentCluster, byKey map[string]*schema.SearchResult) []DocumentSimilarity {
	reps := make([]*schema.SearchResult, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster.DocumentKeys) == 0 {
			continue
		}
		if doc, ok := byKey[cluster.DocumentKeys[0]]; ok {
			reps = append(reps, doc)
		}
	}

	var relationships []DocumentSimilarity
	for i := 0; i < len(reps); i++ {
		for j := i + 1; j < len(reps); j++ {
			sim := e.similarity.Calculate(ctx, reps[i], reps[j], DefaultMetrics)
			if sim.Score > 0.3 {
				relationships = append(relationships, sim)
			}
		}
	}
	return relationships
}

// similarityReasons renders a human-readable reason list from the metric
// breakdown.
func similarityReasons(sim DocumentSimilarity) []string {
	var reasons []string
	if len(sim.SharedEntities) > 0 {
		reasons = append(reasons, fmt.Sprintf("shares %d entities", len(sim.SharedEntities)))
	}
	if len(sim.SharedTopics) > 0 {
		reasons = append(reasons, fmt.Sprintf("shares %d topics", len(sim.SharedTopics)))
	}
	if sim.MetricScores[MetricHierarchical] > 0.7 {
		reasons = append(reasons, "structurally adjacent")
	}
	if sim.MetricScores[MetricMetadata] > 0.6 {
		reasons = append(reasons, "matching document characteristics")
	}
	if sim.MetricScores[MetricSemantic] > 0.7 {
		reasons = append(reasons, "semantically close content")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, string(sim.RelationshipType))
	}
	return reasons
}
