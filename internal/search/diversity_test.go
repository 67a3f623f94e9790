package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/searchd/internal/backend"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

func makeResult(sourceType, title, sectionType string, score float64) *schema.SearchResult {
	r := &schema.SearchResult{
		Score:       score,
		SourceType:  sourceType,
		SourceTitle: title,
	}
	if sectionType != "" {
		r.Section = &schema.SectionInfo{Type: sectionType}
	}
	return r
}

func TestSelectDiverseShortInputUntouched(t *testing.T) {
	results := []*schema.SearchResult{
		makeResult("wiki", "a", "", 0.9),
		makeResult("wiki", "b", "", 0.8),
	}
	got := selectDiverse(results, 5, 0.5)
	assert.Equal(t, results, got)
}

func TestSelectDiverseAlwaysFillsLimit(t *testing.T) {
	// All candidates identical in type/title: heavy penalties, but the
	// backfill pass still fills every slot.
	var results []*schema.SearchResult
	for i := 0; i < 20; i++ {
		results = append(results, makeResult("wiki", "same page", "overview", float64(20-i)/20))
	}
	got := selectDiverse(results, 10, 1.0)
	assert.Len(t, got, 10)
}

func TestSelectDiversePrefersVariety(t *testing.T) {
	// Nine wiki results followed by one slightly weaker ticket. With
	// diversity on, the ticket must make the cut.
	var results []*schema.SearchResult
	for i := 0; i < 9; i++ {
		results = append(results, makeResult("wiki", fmt.Sprintf("wiki %d", i), "overview", 0.9-float64(i)*0.01))
	}
	results = append(results, makeResult("ticket", "incident report", "summary", 0.5))

	got := selectDiverse(results, 5, 1.0)
	require.Len(t, got, 5)

	found := false
	for _, r := range got {
		if r.SourceType == "ticket" {
			found = true
		}
	}
	assert.True(t, found, "the diverse candidate should displace a redundant one")
}

func TestZeroDiversityIsPlainTruncation(t *testing.T) {
	c := NewCombiner(nil, logging.NewTesting())

	var vector []backend.Hit
	for i := 0; i < 8; i++ {
		vector = append(vector, backend.Hit{
			Content:  fmt.Sprintf("doc %d", i),
			Score:    float64(8-i) / 8,
			Metadata: map[string]any{"source_type": "wiki"},
		})
	}

	qc := plainQC(1.0, 0, 0)
	qc.Config.DiversityFactor = 0

	results := c.Combine(context.Background(), vector, nil, qc, 3, nil)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("doc %d", i), r.Text, "factor 0 keeps the first limit items in order")
	}
}

func TestSelectDiverseKeepsScoreOrderForAccepted(t *testing.T) {
	var results []*schema.SearchResult
	for i := 0; i < 10; i++ {
		results = append(results, makeResult(fmt.Sprintf("type%d", i), fmt.Sprintf("t%d", i), "", float64(10-i)/10))
	}

	// All distinct: no penalties apply, selection is plain truncation.
	got := selectDiverse(results, 4, 0.8)
	require.Len(t, got, 4)
	for i, r := range got {
		assert.Equal(t, results[i], r)
	}
}
