package rhyme

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

const classifySystemPrompt = "You are a language expert assistant. Respond with ONLY the requested JSON format with no additional text."

var classifyTemperature = 0.1

// classify returns the category map for an ordered batch of words, using one
// completion call per distinct batch.
func (s *Service) classify(ctx context.Context, words []string) (domain.CategoryMap, error) {
	if len(words) == 0 {
		return emptyCategoryMap(), nil
	}

	key := domain.BatchKey(words)

	if m, ok := s.categories.Get(key); ok {
		s.metrics.CacheLookup(cacheCategories, true)
		return m, nil
	}
	s.metrics.CacheLookup(cacheCategories, false)

	v, err, shared := s.categoryFlight.Do(key, func() (any, error) {
		if m, ok := s.categories.Get(key); ok {
			return m, nil
		}

		resp, err := s.completion.Complete(ctx, domain.CompletionRequest{
			Model: domain.Model(s.cfg.ClassifierModel),
			Messages: []domain.ChatMessage{
				{Role: domain.ChatRoleSystem, Content: classifySystemPrompt},
				{Role: domain.ChatRoleUser, Content: classifyPrompt(words)},
			},
			Temperature: &classifyTemperature,
		})
		if err != nil {
			return nil, err
		}

		m, ok := ParseCategories(resp.Content)
		if !ok {
			s.log.WarnContext(ctx, "classification response is not valid JSON",
				slog.Int("words", len(words)),
				slog.Int("content_len", len(resp.Content)),
			)
		}
		s.categories.Add(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.metrics.Coalesced(cacheCategories)
	}
	return v.(domain.CategoryMap), nil
}

func classifyPrompt(words []string) string {
	return fmt.Sprintf(`Categorize each of these words as a noun, verb, adjective, adverb, or other.
Format your response as a JSON object with category names as keys and arrays of words as values.
Words: %s`, strings.Join(words, ", "))
}

// ParseCategories reads a category map from model output: the JSON object
// between the first '{' and the last '}'. Unknown category names map to
// other. The result always holds all five categories; ok is false when no
// valid object was found, in which case every category is empty.
func ParseCategories(content string) (m domain.CategoryMap, ok bool) {
	m = emptyCategoryMap()

	obj, err := extractJSON(content)
	if err != nil || !gjson.Valid(obj) {
		return m, false
	}

	gjson.Parse(obj).ForEach(func(key, value gjson.Result) bool {
		cat := domain.ParseCategory(key.String())
		for _, w := range value.Array() {
			if w.Type != gjson.String {
				continue
			}
			if word := strings.TrimSpace(w.Str); word != "" {
				m[cat] = append(m[cat], word)
			}
		}
		return true
	})

	return m, true
}

// categorize pairs each word with its category, in word order. Words the
// classifier did not return are dropped; words it invented are ignored.
// Matching is case-insensitive.
func categorize(words []string, cats domain.CategoryMap) []domain.RhymeCandidate {
	lookup := make(map[string]domain.Category)
	for w, c := range cats.Lookup() {
		k := strings.ToLower(w)
		if _, seen := lookup[k]; !seen || categoryRank(c) < categoryRank(lookup[k]) {
			lookup[k] = c
		}
	}

	out := make([]domain.RhymeCandidate, 0, len(words))
	for _, w := range words {
		c, ok := lookup[strings.ToLower(w)]
		if !ok {
			continue
		}
		out = append(out, domain.RhymeCandidate{Word: w, Category: c, Score: 1.0})
	}
	return out
}

func categoryRank(c domain.Category) int {
	for i, ac := range domain.AllCategories {
		if ac == c {
			return i
		}
	}
	return len(domain.AllCategories)
}

func emptyCategoryMap() domain.CategoryMap {
	m := make(domain.CategoryMap, len(domain.AllCategories))
	for _, c := range domain.AllCategories {
		m[c] = []string{}
	}
	return m
}

// extractJSON finds the outermost JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
