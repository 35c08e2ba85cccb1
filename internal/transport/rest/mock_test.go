package rest

import (
	"context"
	"iter"
	"sync"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

// rhymeServiceMock is a moq-style mock of rhymeService.
type rhymeServiceMock struct {
	GetRhymeSuggestionsFunc  func(ctx context.Context, q domain.RhymeQuery) (*domain.RhymeResponse, error)
	GetCategorizedRhymesFunc func(ctx context.Context, word string, counts map[domain.Category]int) (map[domain.Category][]domain.RhymeCandidate, error)
	ResearchSongsFunc        func(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error)
	GenerateFunc             func(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error)
	GenerateStreamFunc       func(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error)
	SongwritingPromptFunc    func(theme, mood, language string) (string, string, error)

	mu    sync.Mutex
	calls struct {
		GetRhymeSuggestions  []domain.RhymeQuery
		GetCategorizedRhymes []map[domain.Category]int
		ResearchSongs        []domain.ResearchRequest
		Generate             []domain.CompletionRequest
		GenerateStream       []domain.CompletionRequest
	}
}

var _ rhymeService = &rhymeServiceMock{}

func (m *rhymeServiceMock) GetRhymeSuggestions(ctx context.Context, q domain.RhymeQuery) (*domain.RhymeResponse, error) {
	m.mu.Lock()
	m.calls.GetRhymeSuggestions = append(m.calls.GetRhymeSuggestions, q)
	m.mu.Unlock()
	return m.GetRhymeSuggestionsFunc(ctx, q)
}

func (m *rhymeServiceMock) GetCategorizedRhymes(ctx context.Context, word string, counts map[domain.Category]int) (map[domain.Category][]domain.RhymeCandidate, error) {
	m.mu.Lock()
	m.calls.GetCategorizedRhymes = append(m.calls.GetCategorizedRhymes, counts)
	m.mu.Unlock()
	return m.GetCategorizedRhymesFunc(ctx, word, counts)
}

func (m *rhymeServiceMock) ResearchSongs(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	m.mu.Lock()
	m.calls.ResearchSongs = append(m.calls.ResearchSongs, req)
	m.mu.Unlock()
	return m.ResearchSongsFunc(ctx, req)
}

func (m *rhymeServiceMock) Generate(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	m.mu.Lock()
	m.calls.Generate = append(m.calls.Generate, req)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, req)
}

func (m *rhymeServiceMock) GenerateStream(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error) {
	m.mu.Lock()
	m.calls.GenerateStream = append(m.calls.GenerateStream, req)
	m.mu.Unlock()
	return m.GenerateStreamFunc(ctx, req)
}

func (m *rhymeServiceMock) SongwritingPrompt(theme, mood, language string) (string, string, error) {
	return m.SongwritingPromptFunc(theme, mood, language)
}
