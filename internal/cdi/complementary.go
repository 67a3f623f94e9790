package cdi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// Title keyword tiers for abstraction-level scoring: strategy sits above
// requirements, above design, above implementation.
var abstractionTiers = []struct {
	tier     int
	keywords []string
}{
	{3, []string{"strategy", "vision", "roadmap"}},
	{2, []string{"requirements", "specification", "spec"}},
	{1, []string{"design", "architecture"}},
	{0, []string{"implementation", "technical", "development"}},
}

var (
	requirementsKeywords   = []string{"requirements", "specification", "spec"}
	implementationKeywords = []string{"implementation", "technical", "development"}

	businessKeywords = []string{"business", "product", "market", "stakeholder"}
	techKeywords     = []string{"technical", "engineering", "implementation", "architecture"}
	featureKeywords  = []string{"feature", "functionality", "capability"}
	securityKeywords = []string{"security", "auth", "compliance", "privacy"}

	challengeKeywords    = []string{"scaling", "performance", "migration", "integration", "optimization", "reliability"}
	transferableKeywords = []string{"api", "authentication", "deployment", "testing", "monitoring", "logging"}
	patternKeywords      = []string{"microservice", "event", "queue", "cache", "pipeline", "gateway"}
)

// scoredFactor is one complementarity signal with its explanation.
type scoredFactor struct {
	score  float64
	reason string
}

// ComplementaryFinder recommends documents that complement a target:
// within a project it looks for abstraction and role pairings, across
// projects for transferable experience.
type ComplementaryFinder struct {
	logger *logging.Logger
}

// NewComplementaryFinder creates a finder.
func NewComplementaryFinder(logger *logging.Logger) *ComplementaryFinder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ComplementaryFinder{logger: logger}
}

// Find scores every candidate against the target and returns the top
// maxRecommendations with scores above the floor.
func (f *ComplementaryFinder) Find(ctx context.Context, target *schema.SearchResult, candidates []*schema.SearchResult, maxRecommendations int) ComplementaryContent {
	if maxRecommendations <= 0 {
		maxRecommendations = 5
	}

	content := ComplementaryContent{
		TargetDocID: target.DocumentID,
		Strategy:    "mixed",
	}

	for _, candidate := range candidates {
		if candidate == target || (candidate.DocumentID != "" && candidate.DocumentID == target.DocumentID) {
			continue
		}

		score, reason := f.scorePair(target, candidate)
		if score <= 0.15 {
			continue
		}
		content.Recommendations = append(content.Recommendations, Recommendation{
			DocumentID: candidate.DocumentID,
			Score:      score,
			Reason:     reason,
		})
	}

	sort.SliceStable(content.Recommendations, func(i, j int) bool {
		return content.Recommendations[i].Score > content.Recommendations[j].Score
	})
	if len(content.Recommendations) > maxRecommendations {
		content.Recommendations = content.Recommendations[:maxRecommendations]
	}

	f.logger.Debug(ctx, "complementary search complete",
		zap.String("target", target.DocumentID),
		zap.Int("candidates", len(candidates)),
		zap.Int("recommendations", len(content.Recommendations)),
	)
	return content
}

func (f *ComplementaryFinder) scorePair(target, candidate *schema.SearchResult) (float64, string) {
	targetProject, targetOK := target.ProjectID()
	candidateProject, candidateOK := candidate.ProjectID()

	if targetOK && candidateOK && targetProject == candidateProject {
		if score, reason, ok := scoreIntraProject(target, candidate); ok {
			return score, reason
		}
	} else {
		if score, reason, ok := scoreInterProject(target, candidate); ok {
			return score, reason
		}
	}
	return scoreFallback(target, candidate)
}

// scoreIntraProject accumulates same-project pairing factors. The winning
// factor takes a 10% boost from the sum of the others (capped 0.95), and
// strong topic coherence (three or more shared topics) multiplies a
// further 1.2.
func scoreIntraProject(target, candidate *schema.SearchResult) (float64, string, bool) {
	titleA := strings.ToLower(target.SourceTitle)
	titleB := strings.ToLower(candidate.SourceTitle)

	var factors []scoredFactor

	if (containsAny(titleA, requirementsKeywords) && containsAny(titleB, implementationKeywords)) ||
		(containsAny(titleB, requirementsKeywords) && containsAny(titleA, implementationKeywords)) {
		factors = append(factors, scoredFactor{0.85, "requirements paired with implementation"})
	}

	tierA, okA := abstractionTier(titleA)
	tierB, okB := abstractionTier(titleB)
	if okA && okB {
		gap := tierA - tierB
		if gap < 0 {
			gap = -gap
		}
		if gap > 0 {
			factors = append(factors, scoredFactor{
				0.70 + 0.10*float64(gap),
				fmt.Sprintf("spans %d abstraction levels", gap),
			})
		}
	}

	if (containsAny(titleA, businessKeywords) && containsAny(titleB, techKeywords)) ||
		(containsAny(titleB, businessKeywords) && containsAny(titleA, techKeywords)) ||
		(containsAny(titleA, featureKeywords) && containsAny(titleB, securityKeywords)) ||
		(containsAny(titleB, featureKeywords) && containsAny(titleA, securityKeywords)) {
		factors = append(factors, scoredFactor{0.75, "cross-functional perspective"})
	}

	sharedTopics := sharedTerms(target.Topics(), candidate.Topics())
	if len(sharedTopics) > 0 && target.SourceType != candidate.SourceType {
		score := 0.35 + 0.10*float64(len(sharedTopics))
		if score > 0.65 {
			score = 0.65
		}
		factors = append(factors, scoredFactor{score, "same topics in a different document type"})
	}

	if len(factors) == 0 {
		return 0, "", false
	}

	score, reason := combineFactors(factors)
	if len(sharedTopics) >= 3 {
		score *= 1.2
		if score > 0.95 {
			score = 0.95
		}
	}
	return score, reason, true
}

// scoreInterProject accumulates cross-project transfer factors, then
// discounts the result: content from another project is less directly
// actionable.
func scoreInterProject(target, candidate *schema.SearchResult) (float64, string, bool) {
	titleA := strings.ToLower(target.SourceTitle)
	titleB := strings.ToLower(candidate.SourceTitle)

	var factors []scoredFactor

	if pairedKeyword(titleA, titleB, challengeKeywords) {
		factors = append(factors, scoredFactor{0.8, "tackles a similar challenge"})
	}
	if pairedKeyword(titleA, titleB, transferableKeywords) {
		factors = append(factors, scoredFactor{0.75, "transferable domain experience"})
	}
	if pairedKeyword(titleA, titleB, patternKeywords) {
		factors = append(factors, scoredFactor{0.7, "reusable architecture pattern"})
	}

	sharedTech := sharedTerms(target.Entities(), candidate.Entities())
	if len(sharedTech) > 0 {
		score := 0.3 + 0.1*float64(len(sharedTech))
		if score > 0.6 {
			score = 0.6
		}
		factors = append(factors, scoredFactor{score, fmt.Sprintf("shares %d technologies", len(sharedTech))})
	}

	if len(factors) == 0 {
		return 0, "", false
	}

	score, reason := combineFactors(factors)
	return score * 0.8, reason, true
}

// scoreFallback scores weakly related pairs by raw overlap, capped at 0.5
// combined.
func scoreFallback(target, candidate *schema.SearchResult) (float64, string) {
	var score float64
	reason := "weak overlap"

	if topics := sharedTerms(target.Topics(), candidate.Topics()); len(topics) > 0 {
		score += 0.2 + 0.05*float64(len(topics))
		reason = "shared topics"
	} else if entities := sharedTerms(target.Entities(), candidate.Entities()); len(entities) > 0 {
		score += 0.15 + 0.05*float64(len(entities))
		reason = "shared entities"
	} else if n := commonTitleWords(target.SourceTitle, candidate.SourceTitle); n > 0 {
		score += 0.1 + 0.02*float64(n)
		reason = "related titles"
	}

	if score > 0.5 {
		score = 0.5
	}
	return score, reason
}

// combineFactors boosts the winning factor by 10% of the remaining
// factors' sum, capped at 0.95.
func combineFactors(factors []scoredFactor) (float64, string) {
	winner := factors[0]
	var total float64
	for _, f := range factors {
		total += f.score
		if f.score > winner.score {
			winner = f
		}
	}
	score := winner.score + 0.1*(total-winner.score)
	if score > 0.95 {
		score = 0.95
	}
	return score, winner.reason
}

func abstractionTier(title string) (int, bool) {
	for _, t := range abstractionTiers {
		if containsAny(title, t.keywords) {
			return t.tier, true
		}
	}
	return 0, false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// pairedKeyword reports whether both titles mention a keyword from the
// same list (not necessarily the same keyword).
func pairedKeyword(titleA, titleB string, keywords []string) bool {
	return containsAny(titleA, keywords) && containsAny(titleB, keywords)
}

func commonTitleWords(titleA, titleB string) int {
	wordsB := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(titleB)) {
		if len(w) >= 3 && !nameStopwords[w] {
			wordsB[w] = true
		}
	}
	count := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(titleA)) {
		if len(w) >= 3 && !nameStopwords[w] && wordsB[w] && !seen[w] {
			seen[w] = true
			count++
		}
	}
	return count
}
