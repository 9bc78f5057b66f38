package conversation

import (
	"strings"

	"tour_guide_rag/pkg"

	"github.com/cloudwego/eino/schema"
)

// DefaultMaxTurns is how many history turns reach the model.
const DefaultMaxTurns = 20

type ContextStrategy interface {
	BuildMessages(history []pkg.ChatTurn) []*schema.Message
	GetMaxTurns() int
}

// ====================== Chat ======================
// HistoryStrategy - chat model gets the last N caller-supplied turns
type HistoryStrategy struct {
	maxTurns int
}

func NewHistoryStrategy(maxTurns int) *HistoryStrategy {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &HistoryStrategy{maxTurns: maxTurns}
}

func (s *HistoryStrategy) GetMaxTurns() int {
	return s.maxTurns
}

// BuildMessages maps turns to chat messages. "user" stays a user message and
// any other role becomes an assistant message.
func (s *HistoryStrategy) BuildMessages(history []pkg.ChatTurn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == pkg.RoleUser {
			messages = append(messages, schema.UserMessage(turn.Content))
		} else {
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return trimTail(messages, s.maxTurns)
}

// ====================== Logging ======================
// Transcript renders messages on one line each for debug logs.
func Transcript(messages []*schema.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case schema.System:
			b.WriteString("SystemMessage(" + msg.Content + ")\n")
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Helper function
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
