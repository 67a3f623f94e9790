package cdi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// nameStopwords are dropped when cleaning topic-derived cluster names.
var nameStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "for": true, "to": true,
	"with": true, "about": true,
}

// ClusterAnalyzer groups a result set into named, described clusters.
type ClusterAnalyzer struct {
	calculator *SimilarityCalculator
	logger     *logging.Logger
}

// NewClusterAnalyzer creates an analyzer. The calculator drives coherence
// scoring.
func NewClusterAnalyzer(calculator *SimilarityCalculator, logger *logging.Logger) *ClusterAnalyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ClusterAnalyzer{calculator: calculator, logger: logger}
}

// Cluster groups documents by the strategy's key function. Groups smaller
// than minClusterSize are discarded; groups beyond maxClusters are
// truncated in insertion order.
func (a *ClusterAnalyzer) Cluster(ctx context.Context, documents []*schema.SearchResult, strategy ClusteringStrategy, maxClusters, minClusterSize int) []DocumentCluster {
	if !strategy.Valid() {
		strategy = StrategyMixed
	}
	if maxClusters <= 0 {
		maxClusters = 10
	}
	if minClusterSize <= 0 {
		minClusterSize = 2
	}

	groups := make(map[string][]*schema.SearchResult)
	var keyOrder []string
	for _, doc := range documents {
		key, ok := groupKey(doc, strategy)
		if !ok {
			continue
		}
		if _, exists := groups[key]; !exists {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], doc)
	}

	clusters := make([]DocumentCluster, 0, maxClusters)
	for _, key := range keyOrder {
		members := groups[key]
		if len(members) < minClusterSize {
			continue
		}
		if len(clusters) == maxClusters {
			break
		}
		clusters = append(clusters, a.buildCluster(ctx, key, members, strategy, len(clusters)))
	}

	a.logger.Debug(ctx, "clustering complete",
		zap.String("strategy", string(strategy)),
		zap.Int("documents", len(documents)),
		zap.Int("clusters", len(clusters)),
	)
	return clusters
}

// groupKey derives the grouping key for one document; ok is false when the
// strategy cannot place the document (e.g. project clustering without a
// project).
func groupKey(doc *schema.SearchResult, strategy ClusteringStrategy) (string, bool) {
	switch strategy {
	case StrategyEntity:
		top := topTerms(doc.Entities(), 3)
		if len(top) == 0 {
			return "", false
		}
		return strings.Join(top, "|"), true
	case StrategyTopic:
		top := topTerms(doc.Topics(), 3)
		if len(top) == 0 {
			return "", false
		}
		return strings.Join(top, "|"), true
	case StrategyProject:
		// Documents without a project are never clustered this way.
		project, ok := doc.ProjectID()
		return project, ok
	case StrategyHierarchical:
		breadcrumb, ok := doc.Breadcrumb()
		if !ok {
			return "root", true
		}
		segs := breadcrumbSegments(breadcrumb)
		if len(segs) == 0 {
			return "root", true
		}
		if len(segs) > 2 {
			segs = segs[:2]
		}
		return strings.Join(segs, " > "), true
	case StrategyMixed:
		var parts []string
		parts = append(parts, topTerms(doc.Entities(), 2)...)
		parts = append(parts, topTerms(doc.Topics(), 2)...)
		if project, ok := doc.ProjectID(); ok {
			parts = append(parts, project)
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "|"), true
	}
	return "", false
}

func (a *ClusterAnalyzer) buildCluster(ctx context.Context, key string, members []*schema.SearchResult, strategy ClusteringStrategy, index int) DocumentCluster {
	cluster := DocumentCluster{
		ID:              uuid.NewString(),
		Strategy:        strategy,
		ExpectedMembers: len(members),
		ResolvedMembers: len(members),
	}

	for _, doc := range members {
		cluster.DocumentKeys = append(cluster.DocumentKeys, doc.DocKey())
	}
	cluster.RepresentativeDocID = members[0].DocumentID

	cluster.SharedEntities = commonTerms(members, func(d *schema.SearchResult) []string { return d.Entities() })
	cluster.SharedTopics = commonTerms(members, func(d *schema.SearchResult) []string { return d.Topics() })
	cluster.CoherenceScore = a.coherence(ctx, members)
	cluster.Name = clusterName(key, members, strategy, index)
	cluster.Description = describeCluster(members, cluster.CoherenceScore)
	return cluster
}

// coherence is the mean pairwise similarity among members: 1.0 for a
// singleton, 0.0 when nothing resolves.
func (a *ClusterAnalyzer) coherence(ctx context.Context, members []*schema.SearchResult) float64 {
	if len(members) == 0 {
		return 0
	}
	if len(members) == 1 {
		return 1.0
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sim := a.calculator.Calculate(ctx, members[i], members[j], DefaultMetrics)
			sum += sim.Score
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// topTerms returns the n most frequent terms, alphabetical within equal
// frequency so the key is deterministic.
func topTerms(terms []string, n int) []string {
	if len(terms) == 0 {
		return nil
	}
	freq := make(map[string]int)
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			freq[t]++
		}
	}
	unique := make([]string, 0, len(freq))
	for t := range freq {
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool {
		if freq[unique[i]] != freq[unique[j]] {
			return freq[unique[i]] > freq[unique[j]]
		}
		return unique[i] < unique[j]
	})
	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}

// commonTerms returns terms present in at least half the members, capped
// at five.
func commonTerms(members []*schema.SearchResult, extract func(*schema.SearchResult) []string) []string {
	counts := make(map[string]int)
	casing := make(map[string]string)
	for _, doc := range members {
		seen := make(map[string]bool)
		for _, t := range extract(doc) {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
			if _, ok := casing[key]; !ok {
				casing[key] = t
			}
		}
	}

	threshold := (len(members) + 1) / 2
	common := make([]string, 0, len(counts))
	for key, n := range counts {
		if n >= threshold {
			common = append(common, key)
		}
	}
	sort.Slice(common, func(i, j int) bool {
		if counts[common[i]] != counts[common[j]] {
			return counts[common[i]] > counts[common[j]]
		}
		return common[i] < common[j]
	})
	if len(common) > 5 {
		common = common[:5]
	}
	out := make([]string, len(common))
	for i, key := range common {
		out[i] = casing[key]
	}
	return out
}

// clusterName generates a strategy-specific display name.
func clusterName(key string, members []*schema.SearchResult, strategy ClusteringStrategy, index int) string {
	switch strategy {
	case StrategyEntity:
		parts := strings.Split(key, "|")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		for i, p := range parts {
			parts[i] = normalizeEntityName(p)
		}
		return strings.Join(parts, " & ")
	case StrategyTopic:
		parts := strings.Split(key, "|")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		for i, p := range parts {
			parts[i] = cleanTopicName(p)
		}
		return strings.Join(parts, " & ")
	case StrategyProject:
		name := key
		if p := members[0].Project; p != nil && p.ProjectName != "" {
			name = p.ProjectName
		}
		return "Project " + titleCase(name)
	case StrategyHierarchical:
		return key
	case StrategyMixed:
		entities := topTerms(members[0].Entities(), 1)
		topics := topTerms(members[0].Topics(), 1)
		switch {
		case len(entities) > 0 && len(topics) > 0:
			return normalizeEntityName(entities[0]) + " / " + cleanTopicName(topics[0])
		case len(entities) > 0:
			return normalizeEntityName(entities[0])
		case len(topics) > 0:
			return cleanTopicName(topics[0])
		}
	}
	return fmt.Sprintf("Cluster %d", index+1)
}

// normalizeEntityName title-cases an entity but keeps short all-caps terms
// as acronyms.
func normalizeEntityName(name string) string {
	if len(name) <= 5 && name == strings.ToUpper(name) && name != strings.ToLower(name) {
		return name
	}
	if len(name) <= 4 {
		// Short lower-cased entities are usually acronyms too (api, sso).
		return strings.ToUpper(name)
	}
	return titleCase(name)
}

// cleanTopicName strips stopwords and punctuation, then title-cases.
func cleanTopicName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !nameStopwords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return titleCase(name)
	}
	return titleCase(strings.Join(kept, " "))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// describeCluster synthesizes a free-text description from the dominant
// source type, common title words, content characteristics, and coherence.
func describeCluster(members []*schema.SearchResult, coherence float64) string {
	var parts []string

	typeCounts := make(map[string]int)
	for _, doc := range members {
		typeCounts[doc.SourceType]++
	}
	dominantType := ""
	dominantCount := 0
	for t, n := range typeCounts {
		if n > dominantCount || (n == dominantCount && t < dominantType) {
			dominantType, dominantCount = t, n
		}
	}
	if dominantType != "" && dominantCount*2 >= len(members) {
		parts = append(parts, fmt.Sprintf("mostly %s documents", dominantType))
	}

	if word := commonTitleWord(members); word != "" {
		parts = append(parts, fmt.Sprintf("titles mention %q", word))
	}

	codeCount := 0
	totalWords := 0
	counted := 0
	for _, doc := range members {
		if doc.HasCodeBlocks() {
			codeCount++
		}
		if w, ok := doc.WordCount(); ok {
			totalWords += w
			counted++
		}
	}
	if codeCount*2 >= len(members) {
		parts = append(parts, "code-heavy")
	}
	if counted > 0 && totalWords/counted > 800 {
		parts = append(parts, "long-form content")
	}

	switch {
	case coherence >= 0.7:
		parts = append(parts, "highly related")
	case coherence < 0.4:
		parts = append(parts, "loosely connected")
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%d related documents", len(members))
	}
	return fmt.Sprintf("%d documents: %s", len(members), strings.Join(parts, ", "))
}

// commonTitleWord finds the most frequent non-stopword title token shared
// by at least two members.
func commonTitleWord(members []*schema.SearchResult) string {
	counts := make(map[string]int)
	for _, doc := range members {
		seen := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(doc.SourceTitle)) {
			if len(w) < 3 || nameStopwords[w] || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}
	best := ""
	bestCount := 1
	for w, n := range counts {
		if n > bestCount || (n == bestCount && n > 1 && w < best) {
			best, bestCount = w, n
		}
	}
	return best
}
