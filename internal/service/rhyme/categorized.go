package rhyme

import (
	"context"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

// DefaultCategoryCount is used for a category missing from the counts map.
const DefaultCategoryCount = 5

// GetCategorizedRhymes fetches one categorized suggestion list sized to the
// sum of counts and splits it into per-category buckets, each truncated to
// its count. Every category is present in the result. Suggestions with an
// unrecognized category go to other.
func (s *Service) GetCategorizedRhymes(ctx context.Context, word string, counts map[domain.Category]int) (map[domain.Category][]domain.RhymeCandidate, error) {
	limits := make(map[domain.Category]int, len(domain.AllCategories))
	total := 0
	for _, c := range domain.AllCategories {
		n, ok := counts[c]
		if !ok {
			n = DefaultCategoryCount
		}
		if n < 0 {
			return nil, domain.NewValidationError(c.String()+"Count", "must not be negative")
		}
		limits[c] = n
		total += n
	}
	if total == 0 {
		return nil, domain.NewValidationError("counts", "at least one category count must be positive")
	}

	resp, err := s.GetRhymeSuggestions(ctx, domain.RhymeQuery{
		Word:              word,
		Count:             total,
		IncludeCategories: true,
	})
	if err != nil {
		return nil, err
	}

	out := make(map[domain.Category][]domain.RhymeCandidate, len(domain.AllCategories))
	for _, c := range domain.AllCategories {
		out[c] = []domain.RhymeCandidate{}
	}

	for _, sug := range resp.Suggestions {
		if !sug.Category.IsValid() {
			sug.Category = domain.CategoryOther
		}
		if len(out[sug.Category]) < limits[sug.Category] {
			out[sug.Category] = append(out[sug.Category], sug)
		}
	}

	return out, nil
}
