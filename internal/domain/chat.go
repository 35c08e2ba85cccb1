package domain

// ChatMessage is a single turn of a chat-completion conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// CompletionRequest is a provider-independent chat-completion request.
// Nil Temperature or MaxTokens means "use the provider default".
type CompletionRequest struct {
	Model       Model
	Messages    []ChatMessage
	Temperature *float64
	MaxTokens   *int
}

// CompletionResponse is a normalized single-shot completion.
type CompletionResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Model   string `json:"model"`
}
