package perplexity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

const (
	analysisUnavailable  = "Analysis not available"
	analysisUnstructured = "Analysis derived from unstructured response"
)

var (
	patternRe        = regexp.MustCompile(`(?i)([A-Z]{4,})\s+pattern`)
	rhymePairRe      = regexp.MustCompile(`(?i)\b(rhym\w+)\b\s+(\w+)\s+(?:and|with)\s+(\w+)`)
	analysisKeywords = []string{"analysis", "summary", "conclusion"}
)

// ParseResearch extracts a ResearchResult from free-form provider text.
// It tries, in order: the JSON object between the first '{' and the last
// '}'; regex heuristics over the prose; an empty result. It never fails and
// never returns nil slices.
func ParseResearch(text, theme string) *domain.ResearchResult {
	if obj, ok := outermost(text, '{', '}'); ok && gjson.Valid(obj) {
		return researchFromJSON(gjson.Parse(obj), theme)
	}
	return researchFromProse(text, theme)
}

func researchFromJSON(doc gjson.Result, theme string) *domain.ResearchResult {
	res := &domain.ResearchResult{
		Theme:         theme,
		RhymePatterns: []domain.RhymePattern{},
		CommonRhymes:  []string{},
		AnalysisText:  analysisUnavailable,
	}

	if a := doc.Get("analysis"); a.Type == gjson.String && strings.TrimSpace(a.Str) != "" {
		res.AnalysisText = a.Str
	}

	if patterns := doc.Get("rhymePatterns"); patterns.IsArray() {
		for _, p := range patterns.Array() {
			res.RhymePatterns = append(res.RhymePatterns, domain.RhymePattern{
				Pattern:          p.Get("pattern").String(),
				FrequencyPercent: frequency(p.Get("frequency")),
				Examples:         stringList(p.Get("examples")),
			})
		}
	}

	if rhymes := doc.Get("commonRhymes"); rhymes.IsArray() {
		for _, r := range rhymes.Array() {
			if s := rhymeGroup(r); s != "" {
				res.CommonRhymes = append(res.CommonRhymes, s)
			}
		}
	}

	return res
}

func researchFromProse(text, theme string) *domain.ResearchResult {
	res := &domain.ResearchResult{
		Theme:         theme,
		RhymePatterns: []domain.RhymePattern{},
		CommonRhymes:  []string{},
		AnalysisText:  analysisUnstructured,
	}

	seen := make(map[string]bool)
	for _, m := range patternRe.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		res.RhymePatterns = append(res.RhymePatterns, domain.RhymePattern{
			Pattern:  m[1],
			Examples: []string{},
		})
	}

	seen = make(map[string]bool)
	for _, m := range rhymePairRe.FindAllStringSubmatch(text, -1) {
		pair := m[2] + " - " + m[3]
		if seen[pair] {
			continue
		}
		seen[pair] = true
		res.CommonRhymes = append(res.CommonRhymes, pair)
	}

	for _, para := range strings.Split(text, "\n\n") {
		lower := strings.ToLower(para)
		for _, kw := range analysisKeywords {
			if strings.Contains(lower, kw) {
				res.AnalysisText = strings.TrimSpace(para)
				return res
			}
		}
	}

	return res
}

// ParseRhymeList extracts candidate words from free-form provider text:
// the string elements of the JSON array between the first '[' and the last
// ']' when that parses, otherwise every newline- or comma-separated token
// reduced to its ASCII letters. Empty tokens are dropped.
func ParseRhymeList(text string) []string {
	if arr, ok := outermost(text, '[', ']'); ok && gjson.Valid(arr) {
		return stringList(gjson.Parse(arr))
	}

	words := []string{}
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ',' }) {
		if w := domain.LettersOnly(tok); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// outermost returns the substring from the first open to the last close
// delimiter, inclusive.
func outermost(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// stringList returns the non-empty string elements of a JSON array.
func stringList(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, e := range v.Array() {
		if e.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(e.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// frequency reads a percentage given as a number or a string like "40%".
func frequency(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v.Str), "%")), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

// rhymeGroup flattens one commonRhymes element: strings pass through,
// arrays of words are joined with " - ".
func rhymeGroup(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str)
	case v.IsArray():
		return strings.Join(stringList(v), " - ")
	}
	return ""
}
