package search

import (
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// selectDiverse applies diversity-aware selection over score-sorted
// results.
//
// First pass: walk candidates in score order, multiply each score by a
// penalty that shrinks when the candidate's source type, section type, or
// exact (source, title) pair was already selected. Accept while fewer than
// 70% of slots are filled, or when the penalized score keeps at least 60%
// of the original. Second pass: backfill remaining slots with the best
// not-yet-accepted candidates.
func selectDiverse(results []*schema.SearchResult, limit int, diversityFactor float64) []*schema.SearchResult {
	if len(results) <= limit {
		return results
	}

	selected := make([]*schema.SearchResult, 0, limit)
	accepted := make(map[*schema.SearchResult]bool, limit)

	usedSources := make(map[string]bool)
	usedSections := make(map[string]bool)
	usedTitles := make(map[string]bool)

	freeSlots := float64(limit) * 0.7

	for _, r := range results {
		if len(selected) == limit {
			break
		}

		penalty := 1.0
		if usedSources[r.SourceType] {
			penalty -= diversityFactor * 0.3
		}
		if sectionType, ok := r.SectionType(); ok && usedSections[sectionType] {
			penalty -= diversityFactor * 0.2
		}
		titleKey := r.SourceType + ":" + r.SourceTitle
		if usedTitles[titleKey] {
			penalty -= diversityFactor * 0.4
		}
		if penalty < 0 {
			penalty = 0
		}

		if float64(len(selected)) < freeSlots || penalty >= 0.6 {
			selected = append(selected, r)
			accepted[r] = true
			usedSources[r.SourceType] = true
			if sectionType, ok := r.SectionType(); ok {
				usedSections[sectionType] = true
			}
			usedTitles[titleKey] = true
		}
	}

	// Backfill in score order with whatever the first pass skipped.
	for _, r := range results {
		if len(selected) == limit {
			break
		}
		if !accepted[r] {
			selected = append(selected, r)
			accepted[r] = true
		}
	}

	return selected
}
