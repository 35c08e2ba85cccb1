package rhyme

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

// GetRhymeSuggestions returns scored rhyme suggestions for q.Word, best
// first, at most q.Count of them. Identical queries are answered from the
// cache without upstream calls; concurrent identical queries share one
// upstream round-trip. Original echoes the word as the caller sent it, minus
// surrounding space, even when the lookup itself is normalized.
func (s *Service) GetRhymeSuggestions(ctx context.Context, q domain.RhymeQuery) (*domain.RhymeResponse, error) {
	q.Word = strings.TrimSpace(q.Word)
	original := q.Word
	if !s.cfg.CaseSensitiveKeys {
		q.Word = domain.NormalizeText(q.Word)
	}

	if q.Word == "" {
		return nil, domain.NewValidationError("word", "required")
	}
	if q.Count <= 0 {
		return nil, domain.NewValidationError("count", "must be positive")
	}
	if s.cfg.MaxCount > 0 && q.Count > s.cfg.MaxCount {
		return nil, domain.NewValidationError("count", fmt.Sprintf("must be at most %d", s.cfg.MaxCount))
	}

	key := q.CacheKey()

	if resp, ok := s.rhymes.Get(key); ok {
		s.metrics.CacheLookup(cacheRhymes, true)
		return cloneResponse(resp, original), nil
	}
	s.metrics.CacheLookup(cacheRhymes, false)

	// The flight outlives a cancelled caller so that other callers sharing
	// it still get a result.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.rhymeFlight.DoChan(key, func() (any, error) {
		if resp, ok := s.rhymes.Get(key); ok {
			return resp, nil
		}
		resp, err := s.buildSuggestions(flightCtx, q)
		if err != nil {
			return nil, err
		}
		s.rhymes.Add(key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.metrics.Coalesced(cacheRhymes)
		}
		return cloneResponse(res.Val.(*domain.RhymeResponse), original), nil
	}
}

func (s *Service) buildSuggestions(ctx context.Context, q domain.RhymeQuery) (*domain.RhymeResponse, error) {
	raw, err := s.research.FindRhymes(ctx, q.Word, q.Count)
	if err != nil {
		return nil, fmt.Errorf("find rhymes: %w", err)
	}
	words := uniqueWords(raw)

	var candidates []domain.RhymeCandidate
	if q.IncludeCategories {
		cats, err := s.classify(ctx, words)
		if err != nil {
			return nil, fmt.Errorf("classify: %w", err)
		}
		candidates = categorize(words, cats)
	} else {
		candidates = make([]domain.RhymeCandidate, 0, len(words))
		for _, w := range words {
			candidates = append(candidates, domain.RhymeCandidate{Word: w, Category: domain.CategoryOther, Score: 1.0})
		}
	}

	for i := range candidates {
		candidates[i].Score = Score(q.Word, candidates[i].Word, candidates[i].Category)
	}

	slices.SortStableFunc(candidates, func(a, b domain.RhymeCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(candidates) > q.Count {
		candidates = candidates[:q.Count]
	}

	s.log.DebugContext(ctx, "rhyme suggestions built",
		slog.String("word", q.Word),
		slog.Int("raw", len(raw)),
		slog.Int("suggestions", len(candidates)),
		slog.Bool("categorized", q.IncludeCategories),
	)

	return &domain.RhymeResponse{Original: q.Word, Suggestions: candidates}, nil
}

// uniqueWords trims raw candidates and drops empties and repeats, keeping
// the first occurrence.
func uniqueWords(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, w := range raw {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func cloneResponse(r *domain.RhymeResponse, original string) *domain.RhymeResponse {
	return &domain.RhymeResponse{
		Original:    original,
		Suggestions: slices.Clone(r.Suggestions),
	}
}
