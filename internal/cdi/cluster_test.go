package cdi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

func newTestClusterAnalyzer() *ClusterAnalyzer {
	calc := NewSimilarityCalculator(nil, logging.NewTesting())
	return NewClusterAnalyzer(calc, logging.NewTesting())
}

func TestClusterByEntity(t *testing.T) {
	a := newTestClusterAnalyzer()

	docs := []*schema.SearchResult{
		withSemantics(doc("1", "wiki", "Redis Setup"), []string{"redis"}, nil),
		withSemantics(doc("2", "wiki", "Redis Tuning"), []string{"redis"}, nil),
		withSemantics(doc("3", "wiki", "Kafka Streams"), []string{"kafka"}, nil),
		withSemantics(doc("4", "wiki", "Kafka Topics"), []string{"kafka"}, nil),
	}

	clusters := a.Cluster(context.Background(), docs, StrategyEntity, 10, 2)
	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.Len(t, c.DocumentKeys, 2)
		assert.GreaterOrEqual(t, c.CoherenceScore, 0.0)
		assert.LessOrEqual(t, c.CoherenceScore, 1.0)
		assert.Equal(t, c.ExpectedMembers, c.ResolvedMembers)
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Description)
	}
}

func TestClusterMinSizeDiscardsSmallGroups(t *testing.T) {
	a := newTestClusterAnalyzer()

	docs := []*schema.SearchResult{
		withSemantics(doc("1", "wiki", "Redis A"), []string{"redis"}, nil),
		withSemantics(doc("2", "wiki", "Redis B"), []string{"redis"}, nil),
		withSemantics(doc("3", "wiki", "Kafka Lone"), []string{"kafka"}, nil),
	}

	clusters := a.Cluster(context.Background(), docs, StrategyEntity, 10, 2)
	require.Len(t, clusters, 1, "the singleton kafka group is discarded")
	assert.Len(t, clusters[0].DocumentKeys, 2)
}

func TestClusterMaxClustersTruncates(t *testing.T) {
	a := newTestClusterAnalyzer()

	var docs []*schema.SearchResult
	entities := []string{"redis", "kafka", "postgres"}
	for i, e := range entities {
		docs = append(docs,
			withSemantics(doc(string(rune('a'+2*i)), "wiki", e+" one"), []string{e}, nil),
			withSemantics(doc(string(rune('b'+2*i)), "wiki", e+" two"), []string{e}, nil),
		)
	}

	clusters := a.Cluster(context.Background(), docs, StrategyEntity, 2, 2)
	assert.Len(t, clusters, 2)
}

func TestClusterProjectExcludesUnprojected(t *testing.T) {
	a := newTestClusterAnalyzer()

	docs := []*schema.SearchResult{
		withProject(doc("1", "wiki", "A"), "platform"),
		withProject(doc("2", "wiki", "B"), "platform"),
		withProject(doc("3", "wiki", "C"), "platform"),
		doc("4", "wiki", "No Project One"),
		doc("5", "wiki", "No Project Two"),
		doc("6", "wiki", "No Project Three"),
	}

	clusters := a.Cluster(context.Background(), docs, StrategyProject, 10, 2)
	require.Len(t, clusters, 1, "unprojected documents are never clustered by project")
	assert.Len(t, clusters[0].DocumentKeys, 3)
	assert.NotContains(t, clusters[0].DocumentKeys, "wiki:No Project One")
	assert.Contains(t, clusters[0].Name, "Project")
}

func TestClusterInvalidStrategyFallsBackToMixed(t *testing.T) {
	a := newTestClusterAnalyzer()

	docs := []*schema.SearchResult{
		withSemantics(doc("1", "wiki", "A"), []string{"redis"}, []string{"caching"}),
		withSemantics(doc("2", "wiki", "B"), []string{"redis"}, []string{"caching"}),
	}

	clusters := a.Cluster(context.Background(), docs, ClusteringStrategy("bogus"), 10, 2)
	require.Len(t, clusters, 1)
	assert.Equal(t, StrategyMixed, clusters[0].Strategy)
}

func TestCommonTermsRequireMajority(t *testing.T) {
	members := []*schema.SearchResult{
		withSemantics(doc("1", "wiki", "A"), []string{"redis", "lua"}, nil),
		withSemantics(doc("2", "wiki", "B"), []string{"redis"}, nil),
		withSemantics(doc("3", "wiki", "C"), []string{"redis"}, nil),
	}

	shared := commonTerms(members, func(d *schema.SearchResult) []string { return d.Entities() })
	assert.Contains(t, shared, "redis")
	assert.NotContains(t, shared, "lua", "a term in one of three members is not shared")
}

func TestTopTermsDeterministic(t *testing.T) {
	terms := []string{"b", "a", "b", "a", "c"}
	assert.Equal(t, []string{"a", "b"}, topTerms(terms, 2), "ties break alphabetically")
}

func TestClusterRepresentativeIsFirstMember(t *testing.T) {
	a := newTestClusterAnalyzer()

	docs := []*schema.SearchResult{
		withSemantics(doc("first", "wiki", "A"), []string{"redis"}, nil),
		withSemantics(doc("second", "wiki", "B"), []string{"redis"}, nil),
	}

	clusters := a.Cluster(context.Background(), docs, StrategyEntity, 10, 2)
	require.Len(t, clusters, 1)
	assert.Equal(t, "first", clusters[0].RepresentativeDocID)
}
