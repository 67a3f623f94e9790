// Package cdi implements cross-document intelligence over hybrid search
// results: pairwise similarity, clustering, citation-network centrality,
// complementary-content recommendation, and conflict detection.
//
// Every analysis is a stateless function of the caller-supplied result
// list. Document lookups are built fresh per call; nothing here is cached
// across requests. Analytic failures degrade to documented fallbacks
// rather than surfacing as errors.
package cdi

// Metric names one similarity metric.
type Metric string

const (
	MetricEntityOverlap   Metric = "entity_overlap"
	MetricTopicOverlap    Metric = "topic_overlap"
	MetricMetadata        Metric = "metadata_similarity"
	MetricContentFeatures Metric = "content_features"
	MetricHierarchical    Metric = "hierarchical_distance"
	MetricSemantic        Metric = "semantic_similarity"
)

// DefaultMetrics are the metrics used when the caller does not choose.
var DefaultMetrics = []Metric{
	MetricEntityOverlap,
	MetricTopicOverlap,
	MetricMetadata,
	MetricContentFeatures,
}

// metricWeights drive the weighted combination of metric scores.
var metricWeights = map[Metric]float64{
	MetricEntityOverlap:   0.25,
	MetricTopicOverlap:    0.25,
	MetricMetadata:        0.20,
	MetricContentFeatures: 0.15,
	MetricHierarchical:    0.10,
	MetricSemantic:        0.05,
}

// RelationshipType classifies why two documents relate.
type RelationshipType string

const (
	RelationshipHierarchical RelationshipType = "hierarchical"
	RelationshipCrossRef     RelationshipType = "cross_reference"
	RelationshipProject      RelationshipType = "project_grouping"
	RelationshipSemantic     RelationshipType = "semantic_similarity"
)

// DocumentSimilarity is the outcome of comparing two documents.
type DocumentSimilarity struct {
	Doc1ID           string             `json:"doc1_id"`
	Doc2ID           string             `json:"doc2_id"`
	Score            float64            `json:"score"`
	MetricScores     map[Metric]float64 `json:"metric_scores"`
	SharedEntities   []string           `json:"shared_entities,omitempty"`
	SharedTopics     []string           `json:"shared_topics,omitempty"`
	RelationshipType RelationshipType   `json:"relationship_type"`
}

// ClusteringStrategy selects how documents are grouped. The set is closed.
type ClusteringStrategy string

const (
	StrategyEntity       ClusteringStrategy = "entity_based"
	StrategyTopic        ClusteringStrategy = "topic_based"
	StrategyProject      ClusteringStrategy = "project_based"
	StrategyHierarchical ClusteringStrategy = "hierarchical"
	StrategyMixed        ClusteringStrategy = "mixed_features"
)

// Valid reports whether the strategy is one of the closed set.
func (s ClusteringStrategy) Valid() bool {
	switch s {
	case StrategyEntity, StrategyTopic, StrategyProject, StrategyHierarchical, StrategyMixed:
		return true
	}
	return false
}

// DocumentCluster is one named group of documents. Clusters are request
// artifacts; they are never persisted.
type DocumentCluster struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Strategy       ClusteringStrategy `json:"strategy"`
	DocumentKeys   []string           `json:"document_keys"`
	SharedEntities []string           `json:"shared_entities,omitempty"`
	SharedTopics   []string           `json:"shared_topics,omitempty"`

	// CoherenceScore is the mean pairwise similarity among members that
	// resolved: 1.0 for singletons, 0.0 when none resolve.
	CoherenceScore float64 `json:"coherence_score"`

	RepresentativeDocID string `json:"representative_doc_id"`
	Description         string `json:"description"`

	// ExpectedMembers vs ResolvedMembers lets callers detect retrieval
	// drift when a key no longer resolves in the supplied result list.
	ExpectedMembers int `json:"expected_members"`
	ResolvedMembers int `json:"resolved_members"`
}

// CitationEdge is a directed edge in the citation network.
type CitationEdge struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	RelationType string  `json:"relation_type"`
	Weight       float64 `json:"weight"`
}

// CitationNode carries document attributes on a network node.
type CitationNode struct {
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	ProjectID  string `json:"project_id,omitempty"`
	WordCount  int    `json:"word_count,omitempty"`
	HasCode    bool   `json:"has_code"`
	HasTables  bool   `json:"has_tables"`
	Depth      int    `json:"depth,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CitationNetwork is a directed graph over a result set with centrality
// scores. Once Analyze runs, the three score maps hold one entry per node
// even when the graph algorithms fail (degree-centrality fallback).
type CitationNetwork struct {
	Nodes map[string]CitationNode `json:"nodes"`
	Edges []CitationEdge          `json:"edges"`

	Authority map[string]float64 `json:"authority"`
	Hub       map[string]float64 `json:"hub"`
	PageRank  map[string]float64 `json:"pagerank"`
}

// Recommendation is one complementary-content suggestion.
type Recommendation struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

// ComplementaryContent is the ranked recommendation set for one target.
type ComplementaryContent struct {
	TargetDocID     string           `json:"target_doc_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Strategy        string           `json:"strategy"`
}

// ConflictInfo describes one detected contradiction.
type ConflictInfo struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Snippet1   string  `json:"snippet1"`
	Snippet2   string  `json:"snippet2"`
	// LLMVerified is set when an LLM confirmed or refined the heuristic.
	LLMVerified bool   `json:"llm_verified"`
	Explanation string `json:"explanation"`
}

// ConflictPair is a document pair with conflicting statements.
type ConflictPair struct {
	Doc1ID string       `json:"doc1_id"`
	Doc2ID string       `json:"doc2_id"`
	Info   ConflictInfo `json:"info"`
}

// ConflictAnalysis is the full conflict-detection result.
type ConflictAnalysis struct {
	Conflicts []ConflictPair `json:"conflicts"`

	// Categories maps a conflict category to the "doc1|doc2" pair keys in
	// it.
	Categories map[string][]string `json:"categories"`

	// Suggestions maps a category to a resolution suggestion.
	Suggestions map[string]string `json:"suggestions"`
}
