package rhyme

import (
	"math"
	"strings"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

const (
	baseScore     = 1.0
	lengthPenalty = 0.05
	endingBonus   = 0.2
	lyricalBonus  = 0.1
	minScore      = 0.1
	maxScore      = 1.0
	endingRunes   = 3
	scoreDecimals = 100
)

// Score rates how well candidate works as a rhyme for original:
// start at 1.0, subtract 0.05 per character of length difference, add 0.2
// when the last three characters match case-insensitively, add 0.1 for
// nouns, verbs and adjectives, then clamp to [0.1, 1.0].
func Score(original, candidate string, category domain.Category) float64 {
	score := baseScore

	diff := len([]rune(original)) - len([]rune(candidate))
	if diff < 0 {
		diff = -diff
	}
	score -= float64(diff) * lengthPenalty

	if ending(original) == ending(candidate) {
		score += endingBonus
	}

	if category.IsLyrical() {
		score += lyricalBonus
	}

	score = math.Max(minScore, math.Min(maxScore, score))

	// Every step is a multiple of 0.05; rounding removes float drift.
	return math.Round(score*scoreDecimals) / scoreDecimals
}

// ending returns the lowercased last three characters of w, or all of w
// when it is shorter.
func ending(w string) string {
	r := []rune(strings.ToLower(w))
	if len(r) > endingRunes {
		r = r[len(r)-endingRunes:]
	}
	return string(r)
}
