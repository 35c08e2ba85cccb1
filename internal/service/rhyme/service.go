package rhyme

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/songsmith-backend/internal/config"
	"github.com/heartmarshall/songsmith-backend/internal/domain"
	"github.com/heartmarshall/songsmith-backend/internal/metrics"
)

// Cache names used in logs and metrics.
const (
	cacheRhymes     = "rhymes"
	cacheCategories = "categories"
)

// researchProvider finds raw rhyme candidates and researches song themes.
type researchProvider interface {
	FindRhymes(ctx context.Context, word string, count int) ([]string, error)
	ResearchByTheme(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error)
}

// completionProvider runs chat completions.
type completionProvider interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error)
	CompleteStream(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error)
	SongwritingPrompt(theme, mood, language string) (system, user string)
}

// Service is the rhyme aggregation engine. One Service is shared by all
// requests of the process; its caches and in-flight registries are safe for
// concurrent use.
type Service struct {
	log        *slog.Logger
	research   researchProvider
	completion completionProvider
	cfg        config.RhymesConfig
	metrics    *metrics.Metrics

	rhymes     *expirable.LRU[string, *domain.RhymeResponse]
	categories *expirable.LRU[string, domain.CategoryMap]

	rhymeFlight    singleflight.Group
	categoryFlight singleflight.Group
}

// NewService creates the rhyme engine. m may be nil.
func NewService(
	logger *slog.Logger,
	research researchProvider,
	completion completionProvider,
	cfg config.RhymesConfig,
	m *metrics.Metrics,
) *Service {
	return &Service{
		log:        logger.With("service", "rhyme"),
		research:   research,
		completion: completion,
		cfg:        cfg,
		metrics:    m,
		rhymes:     expirable.NewLRU[string, *domain.RhymeResponse](cfg.CacheSize, nil, cfg.CacheTTL),
		categories: expirable.NewLRU[string, domain.CategoryMap](cfg.CategoryCacheSize, nil, cfg.CacheTTL),
	}
}

// Stats reports cache occupancy.
type Stats struct {
	RhymeEntries    int `json:"rhymeEntries"`
	CategoryEntries int `json:"categoryEntries"`
}

// Stats returns the current number of cached rhyme responses and category maps.
func (s *Service) Stats() Stats {
	return Stats{
		RhymeEntries:    s.rhymes.Len(),
		CategoryEntries: s.categories.Len(),
	}
}

// ResearchSongs runs theme research. Results are not cached.
func (s *Service) ResearchSongs(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	req.Theme = strings.TrimSpace(req.Theme)
	if req.Theme == "" {
		return nil, domain.NewValidationError("theme", "required")
	}
	if req.Count < 0 {
		return nil, domain.NewValidationError("count", "must not be negative")
	}

	res, err := s.research.ResearchByTheme(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("research by theme: %w", err)
	}
	return res, nil
}

// Generate runs a single-shot completion. Results are not cached.
func (s *Service) Generate(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if err := validateCompletion(req); err != nil {
		return nil, err
	}

	resp, err := s.completion.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	return resp, nil
}

// GenerateStream starts a streaming completion. The returned sequence must
// be ranged over exactly once.
func (s *Service) GenerateStream(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error) {
	if err := validateCompletion(req); err != nil {
		return nil, err
	}

	seq, err := s.completion.CompleteStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("complete stream: %w", err)
	}
	return seq, nil
}

// SongwritingPrompt returns the system and user prompts for a songwriting
// session on theme.
func (s *Service) SongwritingPrompt(theme, mood, language string) (system, user string, err error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return "", "", domain.NewValidationError("theme", "required")
	}
	system, user = s.completion.SongwritingPrompt(theme, strings.TrimSpace(mood), strings.TrimSpace(language))
	return system, user, nil
}

func validateCompletion(req domain.CompletionRequest) error {
	var errs []domain.FieldError

	if req.Model == "" {
		errs = append(errs, domain.FieldError{Field: "model", Message: "required"})
	}
	if len(req.Messages) == 0 {
		errs = append(errs, domain.FieldError{Field: "messages", Message: "required"})
	}
	for i, m := range req.Messages {
		if !m.Role.IsValid() {
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("unknown role %q", m.Role),
			})
		}
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		errs = append(errs, domain.FieldError{Field: "temperature", Message: "must be between 0 and 2"})
	}
	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		errs = append(errs, domain.FieldError{Field: "maxTokens", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
