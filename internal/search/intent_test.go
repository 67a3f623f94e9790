package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		query      string
		wantIntent Intent
	}{
		{"procedural", "how to configure the ingress controller", IntentProcedural},
		{"troubleshooting", "fix connection refused error on startup", IntentTroubleshooting},
		{"code", "example function for pagination api", IntentCode},
		{"conceptual", "what is the difference between soft and hard deletes", IntentConceptual},
		{"documentation", "release notes changelog for v2", IntentDocumentation},
		{"exploratory", "everything about our caching layers", IntentExploratory},
		{"short no match is lookup", "payments runbook", IntentLookup},
		{"long no match is general", "the quarterly planning doc that mentioned capacity for the storage team", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, confidence := c.Classify(tt.query)
			assert.Equal(t, tt.wantIntent, intent)
			assert.GreaterOrEqual(t, confidence, 0.5)
			assert.LessOrEqual(t, confidence, 0.95)
		})
	}
}

func TestClassifyDeterministicTieBreak(t *testing.T) {
	c := NewClassifier()

	// "error" (troubleshooting) and "api" (code) both match once; the
	// lower-valued intent must win every time.
	for i := 0; i < 20; i++ {
		intent, _ := c.Classify("api error")
		assert.Equal(t, IntentTroubleshooting, intent)
	}
}

func TestClassifyConfidenceGrowsWithMatches(t *testing.T) {
	c := NewClassifier()

	_, one := c.Classify("guide for the team")
	_, two := c.Classify("setup guide tutorial")
	assert.Greater(t, two, one, "more keyword matches should raise confidence")
}

func TestAdaptiveConfigFor(t *testing.T) {
	base := AdaptiveConfig{
		VectorWeight:  0.6,
		KeywordWeight: 0.3,
		MinScore:      0.3,
		LimitCap:      50,
	}

	t.Run("lookup flips weights toward keyword", func(t *testing.T) {
		cfg := AdaptiveConfigFor(IntentLookup, base)
		assert.Equal(t, 0.4, cfg.VectorWeight)
		assert.Equal(t, 0.6, cfg.KeywordWeight)
		assert.Zero(t, cfg.DiversityFactor)
	})

	t.Run("troubleshooting lowers the score floor", func(t *testing.T) {
		cfg := AdaptiveConfigFor(IntentTroubleshooting, base)
		assert.InDelta(t, 0.24, cfg.MinScore, 1e-9)
		assert.Equal(t, 0.3, cfg.SourceTypeBoosts["ticket"])
	})

	t.Run("exploratory doubles the limit cap", func(t *testing.T) {
		cfg := AdaptiveConfigFor(IntentExploratory, base)
		assert.Equal(t, 100, cfg.LimitCap)
		assert.Equal(t, 0.6, cfg.DiversityFactor)
	})

	t.Run("base is not mutated", func(t *testing.T) {
		_ = AdaptiveConfigFor(IntentProcedural, base)
		assert.Equal(t, 0.6, base.VectorWeight)
		assert.Nil(t, base.SourceTypeBoosts)
	})
}
