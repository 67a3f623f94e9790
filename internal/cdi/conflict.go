package cdi

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/schema"
)

// versionPattern matches version strings like 2.4, v1.0.3, 10.2.7-beta.
var versionPattern = regexp.MustCompile(`\bv?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)\b`)

// antonymPairs are directive phrases that contradict each other when they
// appear in different documents. Negated phrases come first so matching
// can subtract them from their positive prefix.
var antonymPairs = [][2]string{
	{"should not", "should"},
	{"must not", "must"},
	{"do not use", "use"},
	{"never", "always"},
	{"avoid", "recommended"},
	{"deprecated", "recommended"},
	{"disable", "enable"},
	{"forbidden", "required"},
}

var conflictSuggestions = map[string]string{
	"version_mismatch":     "Align both documents on the current version and mark the older statement as superseded.",
	"contradictory_advice": "Review both directives with the owning team and update the outdated one.",
}

// candidatePair is a document pair queued for conflict checks, with its
// selection tier (lower is checked first).
type candidatePair struct {
	doc1, doc2 *schema.SearchResult
	tier       int
}

// ConflictDetector finds contradictory statements between documents using
// lightweight heuristics, optionally verified by an LLM under strict call
// and time budgets.
type ConflictDetector struct {
	cfg     config.ConflictConfig
	llm     llms.Model
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewConflictDetector creates a detector. Invalid config fields are coerced
// to defaults and reported in one aggregated warning. llm may be nil;
// verification also requires cfg.UseLLM.
func NewConflictDetector(cfg config.ConflictConfig, llm llms.Model, logger *logging.Logger) *ConflictDetector {
	if logger == nil {
		logger = logging.NewNop()
	}
	if warning := cfg.Sanitize(); warning != "" {
		logger.Warn(context.Background(), "conflict detector config", zap.String("warning", warning))
	}
	return &ConflictDetector{
		cfg:     cfg,
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(cfg.LLMRatePerSecond), 1),
		logger:  logger,
	}
}

// Detect runs the heuristic detectors over the budgeted pair set, then
// verifies the strongest candidates with the LLM when enabled. Provider
// errors and timeouts keep the heuristic result; Detect never fails.
func (d *ConflictDetector) Detect(ctx context.Context, documents []*schema.SearchResult) ConflictAnalysis {
	analysis := ConflictAnalysis{
		Categories:  make(map[string][]string),
		Suggestions: make(map[string]string),
	}

	pairs := selectPairs(documents, d.cfg.MaxPairsPerTier, d.cfg.MaxPairsTotal)
	for _, pair := range pairs {
		if info, ok := detectVersionConflict(pair.doc1, pair.doc2); ok {
			analysis.Conflicts = append(analysis.Conflicts, ConflictPair{
				Doc1ID: pair.doc1.DocumentID, Doc2ID: pair.doc2.DocumentID, Info: info,
			})
		}
		if info, ok := detectContradictoryAdvice(pair.doc1, pair.doc2); ok {
			analysis.Conflicts = append(analysis.Conflicts, ConflictPair{
				Doc1ID: pair.doc1.DocumentID, Doc2ID: pair.doc2.DocumentID, Info: info,
			})
		}
	}

	sort.SliceStable(analysis.Conflicts, func(i, j int) bool {
		return analysis.Conflicts[i].Info.Confidence > analysis.Conflicts[j].Info.Confidence
	})

	if d.cfg.UseLLM && d.llm != nil && len(analysis.Conflicts) > 0 {
		d.verifyWithLLM(ctx, analysis.Conflicts)
		analysis.Conflicts = dropRefuted(analysis.Conflicts)
	}

	for _, conflict := range analysis.Conflicts {
		key := conflict.Doc1ID + "|" + conflict.Doc2ID
		category := conflict.Info.Category
		analysis.Categories[category] = append(analysis.Categories[category], key)
		if suggestion, ok := conflictSuggestions[category]; ok {
			analysis.Suggestions[category] = suggestion
		}
	}

	d.logger.Debug(ctx, "conflict detection complete",
		zap.Int("documents", len(documents)),
		zap.Int("pairs_checked", len(pairs)),
		zap.Int("conflicts", len(analysis.Conflicts)),
	)
	return analysis
}

// selectPairs builds the budgeted pair list in tiers: same-project pairs
// first, then shared-entity pairs, then the rest. Each tier is capped at
// maxPerTier so a large same-project set cannot starve the later tiers,
// then the whole list is truncated at maxPairs.
func selectPairs(documents []*schema.SearchResult, maxPerTier, maxPairs int) []candidatePair {
	var pairs []candidatePair
	for i := 0; i < len(documents); i++ {
		for j := i + 1; j < len(documents); j++ {
			a, b := documents[i], documents[j]
			tier := 2
			if pa, okA := a.ProjectID(); okA {
				if pb, okB := b.ProjectID(); okB && pa == pb {
					tier = 0
				}
			}
			if tier != 0 && len(sharedTerms(a.Entities(), b.Entities())) > 0 {
				tier = 1
			}
			pairs = append(pairs, candidatePair{doc1: a, doc2: b, tier: tier})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].tier < pairs[j].tier })
	if maxPerTier > 0 {
		kept := pairs[:0]
		perTier := make(map[int]int, 3)
		for _, pair := range pairs {
			if perTier[pair.tier] >= maxPerTier {
				continue
			}
			perTier[pair.tier]++
			kept = append(kept, pair)
		}
		pairs = kept
	}
	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs
}

// dropRefuted removes pairs the model verified as non-conflicts. Unverified
// pairs keep their heuristic result.
func dropRefuted(conflicts []ConflictPair) []ConflictPair {
	kept := conflicts[:0]
	for _, conflict := range conflicts {
		if conflict.Info.LLMVerified && conflict.Info.Confidence < 0.5 {
			continue
		}
		kept = append(kept, conflict)
	}
	return kept
}

// detectVersionConflict flags pairs that name different versions near a
// shared entity or in similarly titled documents.
func detectVersionConflict(a, b *schema.SearchResult) (ConflictInfo, bool) {
	versionsA := versionPattern.FindAllStringSubmatch(a.Text, -1)
	versionsB := versionPattern.FindAllStringSubmatch(b.Text, -1)
	if len(versionsA) == 0 || len(versionsB) == 0 {
		return ConflictInfo{}, false
	}

	related := len(sharedTerms(a.Entities(), b.Entities())) > 0 ||
		commonTitleWords(a.SourceTitle, b.SourceTitle) > 0
	if !related {
		return ConflictInfo{}, false
	}

	setA := make(map[string]bool, len(versionsA))
	for _, m := range versionsA {
		setA[m[1]] = true
	}
	for _, m := range versionsB {
		if !setA[m[1]] {
			return ConflictInfo{
				Category:   "version_mismatch",
				Confidence: 0.6,
				Snippet1:   sentenceAround(a.Text, versionsA[0][0]),
				Snippet2:   sentenceAround(b.Text, m[0]),
				Explanation: fmt.Sprintf("documents reference different versions (%s vs %s)",
					versionsA[0][1], m[1]),
			}, true
		}
	}
	return ConflictInfo{}, false
}

// detectContradictoryAdvice flags pairs where one document uses a directive
// phrase and the other its antonym.
func detectContradictoryAdvice(a, b *schema.SearchResult) (ConflictInfo, bool) {
	textA := strings.ToLower(a.Text)
	textB := strings.ToLower(b.Text)

	for _, pair := range antonymPairs {
		negated, positive := pair[0], pair[1]

		if hasPhrase(textA, negated, "") && hasPhrase(textB, positive, negated) {
			return adviceConflict(a.Text, b.Text, negated, positive), true
		}
		if hasPhrase(textB, negated, "") && hasPhrase(textA, positive, negated) {
			return adviceConflict(b.Text, a.Text, negated, positive), true
		}
	}
	return ConflictInfo{}, false
}

func adviceConflict(text1, text2, phrase1, phrase2 string) ConflictInfo {
	return ConflictInfo{
		Category:    "contradictory_advice",
		Confidence:  0.5,
		Snippet1:    sentenceAround(text1, phrase1),
		Snippet2:    sentenceAround(text2, phrase2),
		Explanation: fmt.Sprintf("one document says %q while the other says %q", phrase1, phrase2),
	}
}

// hasPhrase reports whether text contains phrase as a standalone
// occurrence. When phrase is a prefix of a negated form (e.g. "should"
// inside "should not"), occurrences of the negated form are subtracted so
// the positive phrase is not counted off its own negation.
func hasPhrase(text, phrase, negatedForm string) bool {
	count := strings.Count(text, phrase)
	if count == 0 {
		return false
	}
	if negatedForm != "" && strings.HasPrefix(negatedForm, phrase) {
		count -= strings.Count(text, negatedForm)
	}
	return count > 0
}

// sentenceAround returns the sentence containing the first occurrence of
// the phrase, trimmed to a reasonable length.
func sentenceAround(text, phrase string) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(phrase))
	if idx < 0 {
		return snippet(text)
	}
	start := strings.LastIndexAny(text[:idx], ".!?\n") + 1
	end := idx + len(phrase)
	if rel := strings.IndexAny(text[end:], ".!?\n"); rel >= 0 {
		end += rel + 1
	} else {
		end = len(text)
	}
	sentence := strings.TrimSpace(text[start:end])
	if len(sentence) > 300 {
		sentence = sentence[:300]
	}
	return sentence
}

// verifyWithLLM checks the top candidates with the model, rate limited and
// bounded by the per-call and overall timeouts. A pair whose call fails
// keeps its heuristic result.
func (d *ConflictDetector) verifyWithLLM(ctx context.Context, conflicts []ConflictPair) {
	overall, cancel := context.WithTimeout(ctx, d.cfg.OverallTimeout)
	defer cancel()

	limit := d.cfg.MaxLLMPairs
	if limit > len(conflicts) {
		limit = len(conflicts)
	}

	for i := 0; i < limit; i++ {
		if err := d.limiter.Wait(overall); err != nil {
			d.logger.Warn(ctx, "conflict verification budget exhausted",
				zap.Int("verified", i), zap.Int("planned", limit), zap.Error(err))
			return
		}
		verified, explanation, err := d.verifyPair(overall, &conflicts[i])
		if err != nil {
			d.logger.Warn(ctx, "conflict verification failed, keeping heuristic",
				zap.String("doc1", conflicts[i].Doc1ID),
				zap.String("doc2", conflicts[i].Doc2ID),
				zap.Error(err))
			continue
		}
		conflicts[i].Info.LLMVerified = true
		if verified {
			conflicts[i].Info.Confidence = 0.9
			if explanation != "" {
				conflicts[i].Info.Explanation = explanation
			}
		} else {
			conflicts[i].Info.Confidence = 0.1
		}
	}
}

func (d *ConflictDetector) verifyPair(ctx context.Context, conflict *ConflictPair) (bool, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`Two documentation excerpts may contradict each other.

Excerpt 1: %s

Excerpt 2: %s

Suspected issue: %s

Answer on the first line with exactly CONFLICT or NO_CONFLICT, then one short sentence of explanation.`,
		conflict.Info.Snippet1, conflict.Info.Snippet2, conflict.Info.Explanation)

	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(callCtx, d.llm, prompt,
		llms.WithModel(d.cfg.Model),
		llms.WithTemperature(0),
	)
	if err != nil {
		return false, "", err
	}
	d.logger.Debug(ctx, "conflict pair verified",
		zap.Duration("took", time.Since(start)))

	lines := strings.SplitN(strings.TrimSpace(response), "\n", 2)
	verdict := strings.TrimSpace(strings.ToUpper(lines[0]))
	explanation := ""
	if len(lines) == 2 {
		explanation = strings.TrimSpace(lines[1])
	}
	return strings.HasPrefix(verdict, "CONFLICT"), explanation, nil
}
