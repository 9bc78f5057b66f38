package pkg

// Chat roles accepted from callers
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn represents a message in conversation history
type ChatTurn struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

// ChatRequest is the inbound body of a tour guide chat turn
type ChatRequest struct {
	TourContext string     `json:"tourContext"`
	History     []ChatTurn `json:"history"`
}

// ChatResponse carries the generated answer
type ChatResponse struct {
	Text string `json:"text"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// SyncResponse reports how many knowledge embeddings were written
type SyncResponse struct {
	EmbeddingsCount int `json:"embeddingsCount"`
}

// LastUserContent returns the content of the most recent user turn with text, or "".
func LastUserContent(history []ChatTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser && history[i].Content != "" {
			return history[i].Content
		}
	}
	return ""
}
