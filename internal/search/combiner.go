package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/backend"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// maxBoostFactor caps the summed boost applied on top of the weighted
// combined score.
const maxBoostFactor = 0.5

// proceduralSectionKeywords mark sections that satisfy guide/tutorial
// style intents.
var proceduralSectionKeywords = []string{"guide", "tutorial", "procedure", "steps", "how"}

// convertedOfficeTypes are original file types whose successful conversion
// earns a boost.
var convertedOfficeTypes = map[string]bool{
	"docx": true, "doc": true, "xlsx": true, "xls": true,
	"pptx": true, "ppt": true, "pdf": true, "odt": true,
}

// Combiner merges vector and keyword hits into scored SearchResults. The
// combiner itself holds no weights: everything request-specific arrives in
// the QueryContext, by value, so concurrent requests cannot race on shared
// scoring state.
type Combiner struct {
	booster SemanticBooster
	logger  *logging.Logger
}

// NewCombiner creates a combiner. booster may be nil; the keyword-overlap
// fallback then provides the semantic boost.
func NewCombiner(booster SemanticBooster, logger *logging.Logger) *Combiner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Combiner{booster: booster, logger: logger}
}

// mergedHit pairs the two retrieval scores for one document text.
type mergedHit struct {
	hit          backend.Hit
	vectorScore  float64
	keywordScore float64
	order        int
}

// Combine merges, filters, scores, boosts, sorts, and applies diversity
// selection. Results are keyed by document text, so combination is
// deterministic regardless of which retrieval finished first.
func (c *Combiner) Combine(ctx context.Context, vectorHits, keywordHits []backend.Hit, qc QueryContext, limit int, sourceTypes []string) []*schema.SearchResult {
	merged := make(map[string]*mergedHit, len(vectorHits)+len(keywordHits))
	order := 0
	for _, hit := range vectorHits {
		merged[hit.Content] = &mergedHit{hit: hit, vectorScore: hit.Score, order: order}
		order++
	}
	for _, hit := range keywordHits {
		if m, ok := merged[hit.Content]; ok {
			m.keywordScore = hit.Score
			continue
		}
		merged[hit.Content] = &mergedHit{hit: hit, keywordScore: hit.Score, order: order}
		order++
	}

	// Deterministic iteration: first-seen order.
	ordered := make([]*mergedHit, 0, len(merged))
	for _, m := range merged {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	results := make([]*schema.SearchResult, 0, len(ordered))
	for _, m := range ordered {
		result := schema.Extract(m.hit.Metadata)
		result.Text = m.hit.Content
		result.VectorScore = m.vectorScore
		result.KeywordScore = m.keywordScore
		if st, ok := m.hit.Metadata["source_type"].(string); ok {
			result.SourceType = st
		}
		if title, ok := m.hit.Metadata["title"].(string); ok {
			result.SourceTitle = title
		}
		result.DocumentID = m.hit.ID
		if result.DocumentID == "" {
			if id, ok := m.hit.Metadata["document_id"].(string); ok {
				result.DocumentID = id
			}
		}

		if !matchesSourceTypes(result, sourceTypes) {
			continue
		}
		if !matchesIntentContentRules(result, qc.Config.ContentPreferences, qc.Intent) {
			continue
		}

		combined := qc.Config.VectorWeight*m.vectorScore + qc.Config.KeywordWeight*m.keywordScore
		if combined < qc.Config.MinScore {
			continue
		}

		boost := c.boostFor(ctx, result, qc)
		if boost > maxBoostFactor {
			boost = maxBoostFactor
		}
		result.Score = combined * (1 + boost)
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if qc.Config.DiversityFactor > 0 {
		results = selectDiverse(results, limit, qc.Config.DiversityFactor)
	} else if len(results) > limit {
		results = results[:limit]
	}

	c.logger.Debug(ctx, "combined results",
		zap.Int("vector", len(vectorHits)),
		zap.Int("keyword", len(keywordHits)),
		zap.Int("final", len(results)),
		zap.String("intent", qc.Intent.String()),
	)
	return results
}

func matchesSourceTypes(r *schema.SearchResult, sourceTypes []string) bool {
	if len(sourceTypes) == 0 {
		return true
	}
	for _, st := range sourceTypes {
		if r.SourceType == st {
			return true
		}
	}
	return false
}

// matchesIntentContentRules drops documents whose content type contradicts
// what the intent asks for. Unknown features fail "must have" rules and
// pass "must not have" rules.
func matchesIntentContentRules(r *schema.SearchResult, prefs []string, intent Intent) bool {
	for _, pref := range prefs {
		switch pref {
		case "code":
			if !r.HasCodeBlocks() {
				return false
			}
		case "documentation":
			if r.HasCodeBlocks() {
				return false
			}
		}
	}

	if intent == IntentProcedural {
		sectionType, ok := r.SectionType()
		if !ok {
			return false
		}
		lower := strings.ToLower(sectionType)
		found := false
		for _, kw := range proceduralSectionKeywords {
			if strings.Contains(lower, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// boostFor sums the per-result boosts. Callers cap the total.
func (c *Combiner) boostFor(ctx context.Context, r *schema.SearchResult, qc QueryContext) float64 {
	var boost float64

	// Intent-driven source/section preferences, scaled by classifier
	// confidence.
	if b, ok := qc.Config.SourceTypeBoosts[r.SourceType]; ok {
		boost += b * qc.Confidence
	}
	if sectionType, ok := r.SectionType(); ok {
		if b, ok := qc.Config.SectionTypeBoosts[strings.ToLower(sectionType)]; ok {
			boost += b * qc.Confidence
		}
	}

	// Content-type preference matches.
	if r.ContentAnalysis != nil {
		for _, pref := range qc.Config.ContentPreferences {
			switch pref {
			case "code":
				if r.ContentAnalysis.HasCodeBlocks {
					boost += 0.1
				}
			case "tables":
				if r.ContentAnalysis.HasTables {
					boost += 0.1
				}
			case "images":
				if r.ContentAnalysis.HasImages {
					boost += 0.1
				}
			case "documentation":
				if !r.ContentAnalysis.HasCodeBlocks {
					boost += 0.1
				}
			}
		}
	}

	// Heading level: top-level sections beat deep subsections.
	if r.Section != nil && r.Section.Level != nil {
		switch {
		case *r.Section.Level <= 2:
			boost += 0.1
		case *r.Section.Level == 3:
			boost += 0.05
		}
	}

	// Content volume.
	if words, ok := r.WordCount(); ok {
		switch {
		case words > 1000:
			boost += 0.1
		case words > 500:
			boost += 0.075
		case words > 100:
			boost += 0.05
		}
	}

	// File conversion: successfully converted office/PDF documents, plus
	// spreadsheet sheets for data-flavored queries.
	if r.Conversion != nil && !r.Conversion.Failed {
		if convertedOfficeTypes[strings.ToLower(r.Conversion.OriginalFileType)] {
			boost += 0.08
		}
		if r.Conversion.SheetName != "" && hasPreference(qc.Config.ContentPreferences, "data") {
			boost += 0.1
		}
	}

	boost += c.semanticBoost(ctx, r, qc.Query)
	return boost
}

// semanticBoost scores entity/topic affinity with the query: via the
// embedding booster when available, otherwise plain keyword overlap. A
// booster failure degrades to the fallback, never fails the request.
func (c *Combiner) semanticBoost(ctx context.Context, r *schema.SearchResult, query string) float64 {
	entities := r.Entities()
	topics := r.Topics()
	if len(entities) == 0 && len(topics) == 0 {
		return 0
	}

	if c.booster != nil {
		b, err := c.booster.Boost(ctx, query, entities, topics)
		if err == nil {
			return b
		}
		c.logger.Debug(ctx, "semantic booster failed, using overlap fallback", zap.Error(err))
	}

	queryTokens := make(map[string]bool)
	for _, tok := range tokenize(query) {
		queryTokens[tok] = true
	}
	matches := 0
	for _, term := range append(entities, topics...) {
		for _, tok := range tokenize(term) {
			if queryTokens[tok] {
				matches++
				break
			}
		}
	}
	b := 0.05 * float64(matches)
	if b > 0.15 {
		b = 0.15
	}
	return b
}

func hasPreference(prefs []string, want string) bool {
	for _, p := range prefs {
		if p == want {
			return true
		}
	}
	return false
}
