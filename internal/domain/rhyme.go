package domain

import (
	"fmt"
	"strings"
)

// RhymeCandidate is one scored rhyme suggestion.
type RhymeCandidate struct {
	Word     string   `json:"word"`
	Category Category `json:"type"`
	Score    float64  `json:"score"`
}

// RhymeQuery identifies a rhyme lookup. Two queries are the same cache entry
// iff all three fields match.
type RhymeQuery struct {
	Word              string
	Count             int
	IncludeCategories bool
}

// CacheKey returns the rhyme cache key for the query.
func (q RhymeQuery) CacheKey() string {
	return fmt.Sprintf("%s-%d-%t", q.Word, q.Count, q.IncludeCategories)
}

// RhymeResponse is the result of a rhyme lookup.
type RhymeResponse struct {
	Original    string           `json:"original"`
	Suggestions []RhymeCandidate `json:"suggestions"`
}

// CategoryMap holds the classification of a batch of words.
type CategoryMap map[Category][]string

// batchSep joins batch words. It is a control character, so it never
// appears inside a candidate word.
const batchSep = "\x1f"

// BatchKey returns the category cache key for an ordered word list.
// Distinct lists always produce distinct keys.
func BatchKey(words []string) string {
	return strings.Join(words, batchSep)
}

// Lookup returns the category of every word in the map. When a word is listed
// under several categories, the first one in AllCategories order wins.
func (m CategoryMap) Lookup() map[string]Category {
	out := make(map[string]Category)
	for _, c := range AllCategories {
		for _, w := range m[c] {
			if _, seen := out[w]; !seen {
				out[w] = c
			}
		}
	}
	return out
}

// ResearchRequest describes a theme-based song research query.
type ResearchRequest struct {
	Theme    string
	Mood     string
	Genre    string
	Language string
	Count    int
}

// RhymePattern is one rhyme scheme found by song research.
type RhymePattern struct {
	Pattern          string   `json:"pattern"`
	FrequencyPercent float64  `json:"frequency"`
	Examples         []string `json:"examples"`
}

// ResearchResult is the outcome of theme-based song research.
type ResearchResult struct {
	Theme         string         `json:"theme"`
	RhymePatterns []RhymePattern `json:"rhymePatterns"`
	CommonRhymes  []string       `json:"commonRhymes"`
	AnalysisText  string         `json:"analysis"`
}
