package cdi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

func TestCitationEdgelessNetworkUsesDegree(t *testing.T) {
	a := NewCitationAnalyzer(logging.NewTesting())

	docs := []*schema.SearchResult{
		doc("1", "wiki", "Alpha"),
		doc("2", "wiki", "Beta"),
		doc("3", "wiki", "Gamma"),
	}

	network := a.Build(context.Background(), docs)
	require.Len(t, network.Nodes, 3)
	assert.Empty(t, network.Edges)

	// Every centrality map has one entry per node, all zero.
	for _, scores := range []map[string]float64{network.Authority, network.Hub, network.PageRank} {
		require.Len(t, scores, 3)
		for _, v := range scores {
			assert.Zero(t, v)
		}
	}
}

func TestCitationHierarchyEdges(t *testing.T) {
	a := NewCitationAnalyzer(logging.NewTesting())

	parent := doc("p1", "wiki", "Parent Page")
	child := doc("c1", "wiki", "Child Page")
	child.Hierarchy = &schema.HierarchyInfo{ParentID: "p1"}

	network := a.Build(context.Background(), []*schema.SearchResult{parent, child})
	require.Len(t, network.Edges, 1)
	edge := network.Edges[0]
	assert.Equal(t, "wiki:Parent Page", edge.From)
	assert.Equal(t, "wiki:Child Page", edge.To)
	assert.Equal(t, "hierarchical_child", edge.RelationType)
	assert.Equal(t, 2.0, edge.Weight)
}

func TestCitationUnresolvedParentSkipped(t *testing.T) {
	a := NewCitationAnalyzer(logging.NewTesting())

	orphan := doc("c1", "wiki", "Orphan")
	orphan.Hierarchy = &schema.HierarchyInfo{ParentID: "missing"}

	network := a.Build(context.Background(), []*schema.SearchResult{orphan})
	assert.Empty(t, network.Edges, "an unresolved parent never becomes an edge")
	assert.Len(t, network.Authority, 1)
}

func TestCitationCrossReferenceByURL(t *testing.T) {
	a := NewCitationAnalyzer(logging.NewTesting())

	source := doc("s1", "wiki", "Source")
	source.CrossReference = &schema.CrossReferenceInfo{
		References: []schema.Reference{{URL: "https://wiki/pages/t42"}},
	}
	target := doc("t42", "wiki", "Target")

	network := a.Build(context.Background(), []*schema.SearchResult{source, target})
	require.Len(t, network.Edges, 1)
	assert.Equal(t, "wiki:Source", network.Edges[0].From)
	assert.Equal(t, "wiki:Target", network.Edges[0].To)
	assert.Equal(t, "cross_reference", network.Edges[0].RelationType)
}

func TestCitationCentralityFavorsCitedNode(t *testing.T) {
	a := NewCitationAnalyzer(logging.NewTesting())

	hub := doc("h1", "wiki", "Index")
	hub.CrossReference = &schema.CrossReferenceInfo{
		References: []schema.Reference{
			{URL: "https://wiki/a1"},
			{URL: "https://wiki/b2"},
		},
	}
	cited := doc("a1", "wiki", "Popular")
	other := doc("b2", "wiki", "Other")
	other.CrossReference = &schema.CrossReferenceInfo{
		References: []schema.Reference{{URL: "https://wiki/a1"}},
	}

	network := a.Build(context.Background(), []*schema.SearchResult{hub, cited, other})
	require.NotEmpty(t, network.Edges)

	require.Len(t, network.PageRank, 3)
	assert.Greater(t, network.PageRank["wiki:Popular"], network.PageRank["wiki:Index"],
		"the most-cited document should rank highest")
	assert.Greater(t, network.Authority["wiki:Popular"], network.Authority["wiki:Other"])
	assert.Greater(t, network.Hub["wiki:Index"], network.Hub["wiki:Popular"])
}

func TestCitationNodeAttributes(t *testing.T) {
	a := NewCitationAnalyzer(logging.NewTesting())

	words := 1200
	d := withProject(doc("1", "wiki", "Doc"), "platform")
	d.ContentAnalysis = &schema.ContentAnalysisInfo{HasCodeBlocks: true, WordCount: &words}
	d.CreatedDate = "2024-11-03"

	network := a.Build(context.Background(), []*schema.SearchResult{d})
	node, ok := network.Nodes["wiki:Doc"]
	require.True(t, ok)
	assert.Equal(t, "platform", node.ProjectID)
	assert.Equal(t, 1200, node.WordCount)
	assert.True(t, node.HasCode)
	assert.Equal(t, "2024-11-03", node.CreatedAt)

	bare := doc("2", "wiki", "Undated")
	network = a.Build(context.Background(), []*schema.SearchResult{bare})
	assert.Empty(t, network.Nodes["wiki:Undated"].CreatedAt)
}
