package cdi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

func doc(id, sourceType, title string) *schema.SearchResult {
	return &schema.SearchResult{
		DocumentID:  id,
		SourceType:  sourceType,
		SourceTitle: title,
	}
}

func withSemantics(r *schema.SearchResult, entities, topics []string) *schema.SearchResult {
	r.SemanticAnalysis = &schema.SemanticAnalysisInfo{Entities: entities, Topics: topics}
	return r
}

func withProject(r *schema.SearchResult, projectID string) *schema.SearchResult {
	r.Project = &schema.ProjectInfo{ProjectID: projectID}
	return r
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"redis", "cache"}, []string{"redis", "cache"}, 1.0},
		{"disjoint", []string{"redis"}, []string{"kafka"}, 0.0},
		{"partial", []string{"redis", "cache"}, []string{"redis", "kafka"}, 1.0 / 3.0},
		{"left empty", nil, []string{"redis"}, 0.0},
		{"right empty", []string{"redis"}, nil, 0.0},
		{"both empty", nil, nil, 0.0},
		{"case insensitive", []string{"Redis"}, []string{"redis"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccardSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, got, jaccardSimilarity(tt.b, tt.a), "jaccard must be symmetric")
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestHierarchicalSimilarity(t *testing.T) {
	t.Run("parent child", func(t *testing.T) {
		parent := doc("p1", "wiki", "Parent")
		child := doc("c1", "wiki", "Child")
		child.Hierarchy = &schema.HierarchyInfo{ParentID: "p1"}
		assert.Equal(t, 1.0, hierarchicalSimilarity(child, parent))
		assert.Equal(t, 1.0, hierarchicalSimilarity(parent, child))
	})

	t.Run("siblings", func(t *testing.T) {
		a := doc("a", "wiki", "A")
		b := doc("b", "wiki", "B")
		a.Hierarchy = &schema.HierarchyInfo{ParentID: "p1"}
		b.Hierarchy = &schema.HierarchyInfo{ParentID: "p1"}
		assert.Equal(t, 0.8, hierarchicalSimilarity(a, b))
	})

	t.Run("breadcrumb prefix", func(t *testing.T) {
		a := doc("a", "wiki", "A")
		b := doc("b", "wiki", "B")
		a.Hierarchy = &schema.HierarchyInfo{Breadcrumb: "Platform > Storage > Backups"}
		b.Hierarchy = &schema.HierarchyInfo{Breadcrumb: "Platform > Storage > Replication"}
		assert.InDelta(t, 2.0/3.0, hierarchicalSimilarity(a, b), 1e-9)
	})

	t.Run("unknown hierarchy", func(t *testing.T) {
		assert.Zero(t, hierarchicalSimilarity(doc("a", "wiki", "A"), doc("b", "wiki", "B")))
	})
}

func TestCalculateScoreBounds(t *testing.T) {
	calc := NewSimilarityCalculator(nil, logging.NewTesting())

	a := withSemantics(withProject(doc("a", "wiki", "Design"), "p1"), []string{"redis"}, []string{"caching"})
	b := withSemantics(withProject(doc("b", "wiki", "Notes"), "p1"), []string{"redis"}, []string{"caching"})

	sim := calc.Calculate(context.Background(), a, b, nil)
	assert.GreaterOrEqual(t, sim.Score, 0.0)
	assert.LessOrEqual(t, sim.Score, 1.0)
	assert.Equal(t, []string{"redis"}, sim.SharedEntities)
	assert.Equal(t, []string{"caching"}, sim.SharedTopics)
	assert.Len(t, sim.MetricScores, len(DefaultMetrics), "nil metrics means the default set")
}

func TestCalculateRequestedMetricsOnly(t *testing.T) {
	calc := NewSimilarityCalculator(nil, logging.NewTesting())

	a := withSemantics(doc("a", "wiki", "A"), []string{"redis"}, nil)
	b := withSemantics(doc("b", "wiki", "B"), []string{"redis"}, nil)

	sim := calc.Calculate(context.Background(), a, b, []Metric{MetricEntityOverlap})
	require.Len(t, sim.MetricScores, 1)
	assert.Equal(t, 1.0, sim.MetricScores[MetricEntityOverlap])
	assert.Equal(t, 1.0, sim.Score, "a single metric is its own weighted average")
}

func TestCalculateSemanticWithoutEmbedder(t *testing.T) {
	calc := NewSimilarityCalculator(nil, logging.NewTesting())

	a := doc("a", "wiki", "A")
	b := doc("b", "wiki", "B")
	sim := calc.Calculate(context.Background(), a, b, []Metric{MetricSemantic})
	assert.Zero(t, sim.MetricScores[MetricSemantic], "no embedder degrades to 0, not an error")
}

func TestClassifyRelationship(t *testing.T) {
	t.Run("hierarchy wins", func(t *testing.T) {
		parent := doc("p1", "wiki", "Parent")
		child := doc("c1", "wiki", "Child")
		child.Hierarchy = &schema.HierarchyInfo{ParentID: "p1"}
		calc := NewSimilarityCalculator(nil, logging.NewTesting())

		sim := calc.Calculate(context.Background(), child, parent, []Metric{MetricHierarchical})
		assert.Equal(t, RelationshipHierarchical, sim.RelationshipType)
	})

	t.Run("cross reference", func(t *testing.T) {
		a := doc("a", "wiki", "A")
		a.CrossReference = &schema.CrossReferenceInfo{References: []schema.Reference{{Title: "B"}}}
		b := doc("b", "wiki", "B")
		calc := NewSimilarityCalculator(nil, logging.NewTesting())

		sim := calc.Calculate(context.Background(), a, b, DefaultMetrics)
		assert.Equal(t, RelationshipCrossRef, sim.RelationshipType)
	})

	t.Run("same project", func(t *testing.T) {
		a := withProject(doc("a", "wiki", "A"), "p1")
		b := withProject(doc("b", "wiki", "B"), "p1")
		calc := NewSimilarityCalculator(nil, logging.NewTesting())

		sim := calc.Calculate(context.Background(), a, b, DefaultMetrics)
		assert.Equal(t, RelationshipProject, sim.RelationshipType)
	})

	t.Run("fallback semantic", func(t *testing.T) {
		calc := NewSimilarityCalculator(nil, logging.NewTesting())
		sim := calc.Calculate(context.Background(), doc("a", "wiki", "A"), doc("b", "wiki", "B"), DefaultMetrics)
		assert.Equal(t, RelationshipSemantic, sim.RelationshipType)
	})
}

func TestSharedTermsPreservesFirstCasing(t *testing.T) {
	shared := sharedTerms([]string{"Redis", "Kafka"}, []string{"redis", "postgres"})
	assert.Equal(t, []string{"Redis"}, shared)
}
