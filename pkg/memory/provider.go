// Package memory persists conversation transcripts and their summaries.
package memory

import (
	"time"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

// ConversationInfo describes one stored conversation.
type ConversationInfo struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Provider is the conversation store contract. Implementations merge
// appended messages with what is already stored and keep the combined
// transcript structurally valid, so a caller may safely re-save messages
// it already saved.
type Provider interface {
	// SaveMessages appends messages to the stored transcript. The store
	// merges them with the existing transcript and repairs the result
	// before writing.
	SaveMessages(conversationID string, messages []llm.Message) error
	// LoadMessages returns the stored transcript. A positive limit returns
	// only the last limit messages; zero or negative returns everything.
	LoadMessages(conversationID string, limit int) ([]llm.Message, error)
	// SaveSummary stores the summary text for a conversation.
	SaveSummary(conversationID string, summary string) error
	// LoadSummary returns the stored summary, or "" when none exists.
	LoadSummary(conversationID string) (string, error)
	// ListConversations returns all stored conversations, most recently
	// updated first.
	ListConversations() ([]ConversationInfo, error)
	// DeleteConversation removes a conversation and its summary.
	// Deleting a conversation that does not exist is not an error.
	DeleteConversation(conversationID string) error
	// Close releases store resources.
	Close() error
}
