package domain

import "time"

// Session represents an anonymous browser chat session.
type Session struct {
	ID         string    `json:"id"          db:"id"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	LastActive time.Time `json:"last_active" db:"last_active"`
}

// Message is a stored chat message. SelectedText carries user-highlighted
// text on user messages; Sources carries citations on assistant messages.
type Message struct {
	ID           int64             `json:"id"            db:"id"`
	SessionID    string            `json:"session_id"    db:"session_id"`
	Role         string            `json:"role"          db:"role"`
	Content      string            `json:"content"       db:"content"`
	SelectedText string            `json:"selected_text,omitempty" db:"selected_text"`
	Sources      []SourceReference `json:"sources,omitempty"       db:"sources"`
	CreatedAt    time.Time         `json:"created_at"    db:"created_at"`
}

// ConversationTurn is the minimal history record handed to the prompt
// builder, ordered by time ascending.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
