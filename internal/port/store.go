package port

import (
	"context"

	"github.com/physai/textbook-rag/internal/domain"
)

// SessionStore abstracts the relational store for sessions and messages.
type SessionStore interface {
	// GetOrCreateSession returns the session, creating it if missing and
	// touching last_active otherwise.
	GetOrCreateSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// SaveMessage appends a message to a session, creating the session
	// if needed.
	SaveMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error)

	// ListMessages returns the most recent limit messages in
	// chronological order.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// DeleteMessages clears all messages for a session. The session row
	// itself is kept.
	DeleteMessages(ctx context.Context, sessionID string) error
}
