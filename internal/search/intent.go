// Package search implements the hybrid retrieval pipeline: concurrent
// vector and keyword search, score combination with intent-driven
// boosting, and diversity-aware selection.
package search

import (
	"strings"
)

// Intent classifies what a query is after. The set is closed; adaptive
// configuration dispatches over it.
type Intent int

const (
	IntentGeneral Intent = iota
	IntentLookup
	IntentProcedural
	IntentConceptual
	IntentTroubleshooting
	IntentCode
	IntentDocumentation
	IntentExploratory
)

// String returns the intent name.
func (i Intent) String() string {
	switch i {
	case IntentLookup:
		return "lookup"
	case IntentProcedural:
		return "procedural"
	case IntentConceptual:
		return "conceptual"
	case IntentTroubleshooting:
		return "troubleshooting"
	case IntentCode:
		return "code"
	case IntentDocumentation:
		return "documentation"
	case IntentExploratory:
		return "exploratory"
	default:
		return "general"
	}
}

// QueryContext carries the per-request query state shared by the combiner
// and the pipeline. It is created per request and never shared.
type QueryContext struct {
	Query      string
	Intent     Intent
	Confidence float64
	Config     AdaptiveConfig
}

// AdaptiveConfig is the per-request override of search weights and
// thresholds derived from the classified intent. Always passed by value:
// concurrent requests with different configs must not race on a shared
// combiner (see Combiner).
type AdaptiveConfig struct {
	VectorWeight    float64
	KeywordWeight   float64
	MinScore        float64
	LimitCap        int
	DiversityFactor float64

	// ContentPreferences name the content features this intent favors:
	// "code", "documentation", "tables", "images", "data".
	ContentPreferences []string

	// SourceTypeBoosts and SectionTypeBoosts are additive preference
	// boosts scaled by classifier confidence.
	SourceTypeBoosts  map[string]float64
	SectionTypeBoosts map[string]float64
}

var intentKeywords = map[Intent][]string{
	IntentProcedural:      {"how to", "how do", "steps", "guide", "tutorial", "setup", "install", "configure", "procedure"},
	IntentTroubleshooting: {"error", "fix", "issue", "problem", "fails", "failing", "broken", "debug", "crash"},
	IntentCode:            {"code", "function", "snippet", "example", "implementation", "api", "class", "method"},
	IntentConceptual:      {"what is", "what are", "why", "explain", "overview", "architecture", "concept", "difference between"},
	IntentDocumentation:   {"documentation", "docs", "reference", "specification", "changelog", "release notes"},
	IntentExploratory:     {"related", "compare", "similar", "alternatives", "everything about"},
}

// Classifier classifies query intent with keyword rules. It is stateless
// and safe for concurrent use.
type Classifier struct{}

// NewClassifier creates a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the query's intent and a confidence in [0,1].
//
// The rules are deliberately simple: each intent has a keyword list, the
// intent with the most matches wins, and confidence grows with the match
// count. Short queries with no matches classify as lookup.
func (c *Classifier) Classify(query string) (Intent, float64) {
	lower := strings.ToLower(query)

	best := IntentGeneral
	bestMatches := 0
	for intent, keywords := range intentKeywords {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > bestMatches || (matches == bestMatches && matches > 0 && intent < best) {
			best = intent
			bestMatches = matches
		}
	}

	if bestMatches == 0 {
		if len(strings.Fields(lower)) <= 3 {
			return IntentLookup, 0.6
		}
		return IntentGeneral, 0.5
	}

	confidence := 0.6 + 0.15*float64(bestMatches)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence
}

// AdaptiveConfigFor derives the per-request configuration for an intent,
// starting from the baseline weights. The returned value is owned by the
// caller.
func AdaptiveConfigFor(intent Intent, base AdaptiveConfig) AdaptiveConfig {
	cfg := base
	// Maps on the base are treated as read-only templates; intents that
	// change them allocate fresh ones.
	switch intent {
	case IntentLookup:
		cfg.VectorWeight = 0.4
		cfg.KeywordWeight = 0.6
		cfg.DiversityFactor = 0
		cfg.SourceTypeBoosts = map[string]float64{"wiki": 0.1, "file": 0.1}
	case IntentProcedural:
		cfg.VectorWeight = 0.6
		cfg.KeywordWeight = 0.3
		cfg.ContentPreferences = []string{"documentation"}
		cfg.SectionTypeBoosts = map[string]float64{"guide": 0.25, "tutorial": 0.25, "procedure": 0.2, "steps": 0.2}
		cfg.SourceTypeBoosts = map[string]float64{"wiki": 0.15}
	case IntentTroubleshooting:
		cfg.VectorWeight = 0.55
		cfg.KeywordWeight = 0.45
		cfg.MinScore = cfg.MinScore * 0.8
		cfg.SourceTypeBoosts = map[string]float64{"ticket": 0.3, "wiki": 0.1}
		cfg.DiversityFactor = 0.3
	case IntentCode:
		cfg.VectorWeight = 0.5
		cfg.KeywordWeight = 0.5
		cfg.ContentPreferences = []string{"code"}
		cfg.SourceTypeBoosts = map[string]float64{"code": 0.3, "file": 0.15}
	case IntentConceptual:
		cfg.VectorWeight = 0.75
		cfg.KeywordWeight = 0.2
		cfg.ContentPreferences = []string{"documentation"}
		cfg.SectionTypeBoosts = map[string]float64{"overview": 0.2, "introduction": 0.15}
	case IntentDocumentation:
		cfg.ContentPreferences = []string{"documentation"}
		cfg.SourceTypeBoosts = map[string]float64{"wiki": 0.2}
	case IntentExploratory:
		cfg.VectorWeight = 0.8
		cfg.KeywordWeight = 0.15
		cfg.DiversityFactor = 0.6
		cfg.LimitCap = cfg.LimitCap * 2
	}
	return cfg
}
