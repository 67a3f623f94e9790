package cdi

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

const centralityIterations = 100

const pageRankDamping = 0.85

var errNotConverged = errors.New("centrality iteration did not converge")

// CitationAnalyzer builds a directed reference graph over a result set and
// scores node centrality.
type CitationAnalyzer struct {
	logger *logging.Logger
}

// NewCitationAnalyzer creates an analyzer.
func NewCitationAnalyzer(logger *logging.Logger) *CitationAnalyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CitationAnalyzer{logger: logger}
}

// Build constructs the network and computes centrality. Unresolvable
// references are skipped, never an error. The three centrality maps always
// end up with one entry per node: HITS/PageRank when the graph has edges
// and the iterations behave, degree centrality otherwise.
func (a *CitationAnalyzer) Build(ctx context.Context, documents []*schema.SearchResult) *CitationNetwork {
	network := &CitationNetwork{
		Nodes: make(map[string]CitationNode, len(documents)),
	}

	for _, doc := range documents {
		node := CitationNode{
			Title:      doc.SourceTitle,
			SourceType: doc.SourceType,
			HasCode:    doc.HasCodeBlocks(),
		}
		if project, ok := doc.ProjectID(); ok {
			node.ProjectID = project
		}
		if words, ok := doc.WordCount(); ok {
			node.WordCount = words
		}
		if doc.ContentAnalysis != nil {
			node.HasTables = doc.ContentAnalysis.HasTables
		}
		if depth, ok := doc.Depth(); ok {
			node.Depth = depth
		}
		if created, ok := doc.CreatedAt(); ok {
			node.CreatedAt = created
		}
		network.Nodes[doc.DocKey()] = node
	}

	a.buildEdges(ctx, documents, network)
	a.calculateCentrality(ctx, network)
	return network
}

func (a *CitationAnalyzer) buildEdges(ctx context.Context, documents []*schema.SearchResult, network *CitationNetwork) {
	for _, doc := range documents {
		from := doc.DocKey()

		// Cross-references resolve by URL or title substring.
		for _, ref := range doc.References() {
			if to, ok := resolveReference(ref, doc, documents); ok {
				network.Edges = append(network.Edges, CitationEdge{
					From: from, To: to, RelationType: "cross_reference", Weight: 1.0,
				})
			}
		}

		// Hierarchy: parent -> child, weight 2.0. An unresolved parent is
		// logged and skipped.
		if parentID, ok := doc.ParentID(); ok {
			if parent := findByDocumentID(documents, parentID); parent != nil {
				network.Edges = append(network.Edges, CitationEdge{
					From: parent.DocKey(), To: from, RelationType: "hierarchical_child", Weight: 2.0,
				})
			} else {
				a.logger.Debug(ctx, "parent not in result set",
					zap.String("document", from),
					zap.String("parent_id", parentID),
				)
			}
		}

		// Siblings resolve by title, weight 0.5.
		if doc.Hierarchy != nil {
			for _, sibling := range doc.Hierarchy.Siblings {
				if other := findByTitle(documents, sibling, doc); other != nil {
					network.Edges = append(network.Edges, CitationEdge{
						From: from, To: other.DocKey(), RelationType: "sibling", Weight: 0.5,
					})
				}
			}
		}
	}
}

// resolveReference finds the first other document the reference points at,
// matching the document ID as a URL substring or the title either way.
func resolveReference(ref schema.Reference, self *schema.SearchResult, documents []*schema.SearchResult) (string, bool) {
	for _, other := range documents {
		if other == self {
			continue
		}
		if ref.URL != "" && other.DocumentID != "" && strings.Contains(ref.URL, other.DocumentID) {
			return other.DocKey(), true
		}
		if ref.Title != "" && other.SourceTitle != "" && titleMatch(ref.Title, other.SourceTitle) {
			return other.DocKey(), true
		}
	}
	return "", false
}

func titleMatch(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func findByDocumentID(documents []*schema.SearchResult, id string) *schema.SearchResult {
	for _, doc := range documents {
		if doc.DocumentID == id {
			return doc
		}
	}
	return nil
}

func findByTitle(documents []*schema.SearchResult, title string, exclude *schema.SearchResult) *schema.SearchResult {
	for _, doc := range documents {
		if doc == exclude {
			continue
		}
		if titleMatch(title, doc.SourceTitle) {
			return doc
		}
	}
	return nil
}

// calculateCentrality fills the three score maps. Edgeless graphs go
// straight to degree centrality; HITS/PageRank failures fall back to it
// for all three maps.
func (a *CitationAnalyzer) calculateCentrality(ctx context.Context, network *CitationNetwork) {
	if len(network.Edges) == 0 {
		degree := degreeCentrality(network)
		network.Authority = degree
		network.Hub = copyScores(degree)
		network.PageRank = copyScores(degree)
		return
	}

	hub, authority, err := hits(network)
	if err == nil {
		network.Hub = hub
		network.Authority = authority
		pr, prErr := pageRank(network)
		if prErr == nil {
			network.PageRank = pr
			return
		}
		err = prErr
	}

	a.logger.Warn(ctx, "centrality failed, using degree fallback", zap.Error(err))
	degree := degreeCentrality(network)
	network.Authority = degree
	network.Hub = copyScores(degree)
	network.PageRank = copyScores(degree)
}

// hits runs 100 iterations of the hub/authority update with L2
// normalization each round.
func hits(network *CitationNetwork) (hub, authority map[string]float64, err error) {
	hub = make(map[string]float64, len(network.Nodes))
	authority = make(map[string]float64, len(network.Nodes))
	for key := range network.Nodes {
		hub[key] = 1.0
		authority[key] = 1.0
	}

	for i := 0; i < centralityIterations; i++ {
		newAuthority := make(map[string]float64, len(network.Nodes))
		for _, edge := range network.Edges {
			newAuthority[edge.To] += hub[edge.From] * edge.Weight
		}
		newHub := make(map[string]float64, len(network.Nodes))
		for _, edge := range network.Edges {
			newHub[edge.From] += newAuthority[edge.To] * edge.Weight
		}

		if err := normalize(newAuthority, network.Nodes); err != nil {
			return nil, nil, err
		}
		if err := normalize(newHub, network.Nodes); err != nil {
			return nil, nil, err
		}
		authority = newAuthority
		hub = newHub
	}
	return hub, authority, nil
}

func normalize(scores map[string]float64, nodes map[string]CitationNode) error {
	var sumSquares float64
	for key := range nodes {
		v := scores[key]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errNotConverged
		}
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return errNotConverged
	}
	norm := math.Sqrt(sumSquares)
	for key := range nodes {
		scores[key] = scores[key] / norm
	}
	return nil
}

// pageRank runs 100 weighted iterations with damping 0.85.
func pageRank(network *CitationNetwork) (map[string]float64, error) {
	n := float64(len(network.Nodes))
	if n == 0 {
		return map[string]float64{}, nil
	}

	outWeight := make(map[string]float64, len(network.Nodes))
	for _, edge := range network.Edges {
		outWeight[edge.From] += edge.Weight
	}

	scores := make(map[string]float64, len(network.Nodes))
	for key := range network.Nodes {
		scores[key] = 1.0 / n
	}

	for i := 0; i < centralityIterations; i++ {
		next := make(map[string]float64, len(network.Nodes))
		for key := range network.Nodes {
			next[key] = (1 - pageRankDamping) / n
		}
		for _, edge := range network.Edges {
			if outWeight[edge.From] == 0 {
				continue
			}
			next[edge.To] += pageRankDamping * scores[edge.From] * edge.Weight / outWeight[edge.From]
		}
		for key, v := range next {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errNotConverged
			}
			scores[key] = v
		}
	}
	return scores, nil
}

// degreeCentrality scores each node by its degree over n-1. An edgeless
// graph yields all zeros.
func degreeCentrality(network *CitationNetwork) map[string]float64 {
	scores := make(map[string]float64, len(network.Nodes))
	for key := range network.Nodes {
		scores[key] = 0
	}
	if len(network.Nodes) <= 1 {
		return scores
	}
	for _, edge := range network.Edges {
		scores[edge.From]++
		scores[edge.To]++
	}
	denom := float64(len(network.Nodes) - 1)
	for key := range scores {
		scores[key] /= denom
	}
	return scores
}

func copyScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
