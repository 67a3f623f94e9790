package search

import (
	"math"
	"regexp"
	"strings"
)

// BM25 parameters. k1 controls term-frequency saturation, b the strength
// of document-length normalization.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// tokenize lower-cases and splits text on word boundaries.
func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// bm25Corpus holds per-corpus statistics for scoring a fixed candidate
// set against one query. Built fresh per request; never shared.
type bm25Corpus struct {
	docs      [][]string
	docFreq   map[string]int
	avgDocLen float64
}

// newBM25Corpus tokenizes the candidate texts and precomputes document
// frequencies.
func newBM25Corpus(texts []string) *bm25Corpus {
	c := &bm25Corpus{
		docs:    make([][]string, len(texts)),
		docFreq: make(map[string]int),
	}

	totalLen := 0
	for i, text := range texts {
		tokens := tokenize(text)
		c.docs[i] = tokens
		totalLen += len(tokens)

		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				c.docFreq[tok]++
			}
		}
	}
	if len(texts) > 0 {
		c.avgDocLen = float64(totalLen) / float64(len(texts))
	}
	return c
}

// score computes the BM25 score of document i against the query tokens.
func (c *bm25Corpus) score(queryTokens []string, i int) float64 {
	doc := c.docs[i]
	if len(doc) == 0 || c.avgDocLen == 0 {
		return 0
	}

	termFreq := make(map[string]int, len(doc))
	for _, tok := range doc {
		termFreq[tok]++
	}

	n := float64(len(c.docs))
	docLen := float64(len(doc))
	var score float64
	for _, term := range queryTokens {
		tf := float64(termFreq[term])
		if tf == 0 {
			continue
		}
		df := float64(c.docFreq[term])
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		score += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*docLen/c.avgDocLen))
	}
	return score
}
