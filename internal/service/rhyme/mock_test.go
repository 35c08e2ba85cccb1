package rhyme

import (
	"context"
	"iter"
	"sync"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

var _ researchProvider = &researchProviderMock{}

type researchProviderMock struct {
	FindRhymesFunc      func(ctx context.Context, word string, count int) ([]string, error)
	ResearchByThemeFunc func(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error)

	calls struct {
		FindRhymes []struct {
			Word  string
			Count int
		}
		ResearchByTheme []struct {
			Req domain.ResearchRequest
		}
	}
	lockFindRhymes      sync.RWMutex
	lockResearchByTheme sync.RWMutex
}

func (mock *researchProviderMock) FindRhymes(ctx context.Context, word string, count int) ([]string, error) {
	if mock.FindRhymesFunc == nil {
		panic("researchProviderMock.FindRhymesFunc: method is nil but researchProvider.FindRhymes was just called")
	}
	mock.lockFindRhymes.Lock()
	mock.calls.FindRhymes = append(mock.calls.FindRhymes, struct {
		Word  string
		Count int
	}{Word: word, Count: count})
	mock.lockFindRhymes.Unlock()
	return mock.FindRhymesFunc(ctx, word, count)
}

func (mock *researchProviderMock) FindRhymesCalls() []struct {
	Word  string
	Count int
} {
	mock.lockFindRhymes.RLock()
	defer mock.lockFindRhymes.RUnlock()
	return mock.calls.FindRhymes
}

func (mock *researchProviderMock) ResearchByTheme(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	if mock.ResearchByThemeFunc == nil {
		panic("researchProviderMock.ResearchByThemeFunc: method is nil but researchProvider.ResearchByTheme was just called")
	}
	mock.lockResearchByTheme.Lock()
	mock.calls.ResearchByTheme = append(mock.calls.ResearchByTheme, struct {
		Req domain.ResearchRequest
	}{Req: req})
	mock.lockResearchByTheme.Unlock()
	return mock.ResearchByThemeFunc(ctx, req)
}

func (mock *researchProviderMock) ResearchByThemeCalls() []struct {
	Req domain.ResearchRequest
} {
	mock.lockResearchByTheme.RLock()
	defer mock.lockResearchByTheme.RUnlock()
	return mock.calls.ResearchByTheme
}

var _ completionProvider = &completionProviderMock{}

type completionProviderMock struct {
	CompleteFunc          func(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error)
	CompleteStreamFunc    func(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error)
	SongwritingPromptFunc func(theme, mood, language string) (string, string)

	calls struct {
		Complete []struct {
			Req domain.CompletionRequest
		}
		CompleteStream []struct {
			Req domain.CompletionRequest
		}
	}
	lockComplete       sync.RWMutex
	lockCompleteStream sync.RWMutex
}

func (mock *completionProviderMock) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if mock.CompleteFunc == nil {
		panic("completionProviderMock.CompleteFunc: method is nil but completionProvider.Complete was just called")
	}
	mock.lockComplete.Lock()
	mock.calls.Complete = append(mock.calls.Complete, struct {
		Req domain.CompletionRequest
	}{Req: req})
	mock.lockComplete.Unlock()
	return mock.CompleteFunc(ctx, req)
}

func (mock *completionProviderMock) CompleteCalls() []struct {
	Req domain.CompletionRequest
} {
	mock.lockComplete.RLock()
	defer mock.lockComplete.RUnlock()
	return mock.calls.Complete
}

func (mock *completionProviderMock) CompleteStream(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error) {
	if mock.CompleteStreamFunc == nil {
		panic("completionProviderMock.CompleteStreamFunc: method is nil but completionProvider.CompleteStream was just called")
	}
	mock.lockCompleteStream.Lock()
	mock.calls.CompleteStream = append(mock.calls.CompleteStream, struct {
		Req domain.CompletionRequest
	}{Req: req})
	mock.lockCompleteStream.Unlock()
	return mock.CompleteStreamFunc(ctx, req)
}

func (mock *completionProviderMock) CompleteStreamCalls() []struct {
	Req domain.CompletionRequest
} {
	mock.lockCompleteStream.RLock()
	defer mock.lockCompleteStream.RUnlock()
	return mock.calls.CompleteStream
}

func (mock *completionProviderMock) SongwritingPrompt(theme, mood, language string) (string, string) {
	if mock.SongwritingPromptFunc == nil {
		panic("completionProviderMock.SongwritingPromptFunc: method is nil but completionProvider.SongwritingPrompt was just called")
	}
	return mock.SongwritingPromptFunc(theme, mood, language)
}
