package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

const (
	defaultRhymeCount    = 40
	defaultResearchCount = 100
	maxBodyBytes         = 1 << 20
)

// Default per-category counts for /ai/categorized-rhymes.
var defaultCategoryCounts = map[domain.Category]int{
	domain.CategoryNoun:      10,
	domain.CategoryVerb:      10,
	domain.CategoryAdjective: 10,
	domain.CategoryAdverb:    5,
	domain.CategoryOther:     5,
}

// Generic messages returned on internal failures. Provider error bodies are
// logged, never returned.
const (
	msgRhymes      = "failed to get rhyme suggestions"
	msgCategorized = "failed to get categorized rhymes"
	msgResearch    = "failed to research songs"
	msgGenerate    = "failed to generate song completion"
	msgPrompt      = "failed to build songwriting prompt"
)

// rhymeService defines the minimal interface needed by AIHandler.
type rhymeService interface {
	GetRhymeSuggestions(ctx context.Context, q domain.RhymeQuery) (*domain.RhymeResponse, error)
	GetCategorizedRhymes(ctx context.Context, word string, counts map[domain.Category]int) (map[domain.Category][]domain.RhymeCandidate, error)
	ResearchSongs(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error)
	Generate(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error)
	GenerateStream(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error)
	SongwritingPrompt(theme, mood, language string) (system, user string, err error)
}

// AIHandler serves the /ai REST endpoints.
type AIHandler struct {
	svc rhymeService
	log *slog.Logger
}

// NewAIHandler creates an AIHandler.
func NewAIHandler(svc rhymeService, logger *slog.Logger) *AIHandler {
	return &AIHandler{svc: svc, log: logger.With("handler", "ai")}
}

// Register mounts the /ai routes on mux under prefix ("" for the root).
func (h *AIHandler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix+"/ai/rhymes/{word}", h.Rhymes)
	mux.HandleFunc("GET "+prefix+"/ai/categorized-rhymes/{word}", h.CategorizedRhymes)
	mux.HandleFunc("POST "+prefix+"/ai/research-songs", h.ResearchSongs)
	mux.HandleFunc("POST "+prefix+"/ai/generate", h.Generate)
	mux.HandleFunc("POST "+prefix+"/ai/songwriting-prompt", h.SongwritingPrompt)
}

// Rhymes handles GET /ai/rhymes/{word}?count=40&includeTypes=true.
func (h *AIHandler) Rhymes(w http.ResponseWriter, r *http.Request) {
	count, err := intQuery(r, "count", defaultRhymeCount)
	if err != nil {
		h.handleError(w, r, err, msgRhymes)
		return
	}

	resp, err := h.svc.GetRhymeSuggestions(r.Context(), domain.RhymeQuery{
		Word:              r.PathValue("word"),
		Count:             count,
		IncludeCategories: r.URL.Query().Get("includeTypes") != "false",
	})
	if err != nil {
		h.handleError(w, r, err, msgRhymes)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CategorizedRhymes handles GET /ai/categorized-rhymes/{word} with optional
// nounCount, verbCount, adjectiveCount, adverbCount and otherCount.
func (h *AIHandler) CategorizedRhymes(w http.ResponseWriter, r *http.Request) {
	counts := make(map[domain.Category]int, len(domain.AllCategories))
	for _, c := range domain.AllCategories {
		n, err := intQuery(r, c.String()+"Count", defaultCategoryCounts[c])
		if err != nil {
			h.handleError(w, r, err, msgCategorized)
			return
		}
		counts[c] = n
	}

	resp, err := h.svc.GetCategorizedRhymes(r.Context(), r.PathValue("word"), counts)
	if err != nil {
		h.handleError(w, r, err, msgCategorized)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type researchRequest struct {
	Theme    string `json:"theme"`
	Mood     string `json:"mood"`
	Genre    string `json:"genre"`
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// ResearchSongs handles POST /ai/research-songs.
func (h *AIHandler) ResearchSongs(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Count == 0 {
		req.Count = defaultResearchCount
	}

	resp, err := h.svc.ResearchSongs(r.Context(), domain.ResearchRequest{
		Theme:    req.Theme,
		Mood:     req.Mood,
		Genre:    req.Genre,
		Language: req.Language,
		Count:    req.Count,
	})
	if err != nil {
		h.handleError(w, r, err, msgResearch)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type generateRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature"`
	MaxTokens   *int                 `json:"maxTokens"`
	Stream      bool                 `json:"stream"`
}

// Generate handles POST /ai/generate. With "stream": true the response is a
// text/event-stream of data: {"content": "..."} frames ending with
// data: [DONE].
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := domain.CompletionRequest{
		Model:       domain.Model(req.Model),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.Stream {
		h.stream(w, r, in)
		return
	}

	resp, err := h.svc.Generate(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err, msgGenerate)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AIHandler) stream(w http.ResponseWriter, r *http.Request, in domain.CompletionRequest) {
	chunks, err := h.svc.GenerateStream(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err, msgGenerate)
		return
	}

	rc := http.NewResponseController(w)
	// The server's WriteTimeout covers the whole response; a long reply
	// must not be cut off by it.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.DebugContext(r.Context(), "clear write deadline", slog.String("error", err.Error()))
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc.Flush() //nolint:errcheck

	n := 0
	for chunk, err := range chunks {
		if err != nil {
			// Headers are gone; the client sees the stream end without [DONE].
			h.log.ErrorContext(r.Context(), "completion stream failed",
				slog.Int("chunks", n),
				slog.String("error", err.Error()),
			)
			return
		}
		frame, _ := json.Marshal(map[string]string{"content": chunk})
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			h.log.DebugContext(r.Context(), "client went away during stream", slog.Int("chunks", n))
			return
		}
		rc.Flush() //nolint:errcheck
		n++
	}

	fmt.Fprint(w, "data: [DONE]\n\n") //nolint:errcheck
	rc.Flush()                        //nolint:errcheck
}

type songwritingPromptRequest struct {
	Theme    string `json:"theme"`
	Mood     string `json:"mood"`
	Language string `json:"language"`
}

type songwritingPromptResponse struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// SongwritingPrompt handles POST /ai/songwriting-prompt.
func (h *AIHandler) SongwritingPrompt(w http.ResponseWriter, r *http.Request) {
	var req songwritingPromptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	system, user, err := h.svc.SongwritingPrompt(req.Theme, req.Mood, req.Language)
	if err != nil {
		h.handleError(w, r, err, msgPrompt)
		return
	}

	writeJSON(w, http.StatusOK, songwritingPromptResponse{System: system, User: user})
}

func (h *AIHandler) handleError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		h.log.InfoContext(r.Context(), "request cancelled by client")
	default:
		h.log.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, message)
	}
}

// decodeBody reads a JSON request body into v. On failure it writes a 400
// and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// intQuery parses an integer query parameter, returning def when it is
// absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}
