// Package store provides the Postgres-backed session and message store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/physai/textbook-rag/internal/domain"
)

// PostgresStore handles all relational database operations for chat
// sessions and their messages.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the session and message tables if they are missing.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          VARCHAR(36) PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id            BIGSERIAL PRIMARY KEY,
			session_id    VARCHAR(36) NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			role          VARCHAR(20) NOT NULL,
			content       TEXT NOT NULL,
			selected_text TEXT,
			sources       JSONB,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// GetOrCreateSession returns the session with the given ID, creating it
// if missing and touching last_active otherwise.
func (s *PostgresStore) GetOrCreateSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `INSERT INTO sessions (id) VALUES ($1)
	          ON CONFLICT (id) DO UPDATE SET last_active = NOW()
	          RETURNING id, created_at, last_active`

	var session domain.Session
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.CreatedAt, &session.LastActive,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create session: %w", err)
	}
	return &session, nil
}

// SaveMessage appends a message to a session, creating the session first
// if needed.
func (s *PostgresStore) SaveMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if _, err := s.GetOrCreateSession(ctx, msg.SessionID); err != nil {
		return nil, err
	}

	var sourcesJSON interface{}
	if msg.Sources != nil {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return nil, fmt.Errorf("marshal sources: %w", err)
		}
		sourcesJSON = string(data)
	}

	var selectedText interface{}
	if msg.SelectedText != "" {
		selectedText = msg.SelectedText
	}

	query := `INSERT INTO messages (session_id, role, content, selected_text, sources)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	saved := *msg
	err := s.db.QueryRowContext(ctx, query,
		msg.SessionID, msg.Role, msg.Content, selectedText, sourcesJSON,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return &saved, nil
}

// ListMessages returns the most recent limit messages for a session in
// chronological order.
func (s *PostgresStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT id, session_id, role, content, COALESCE(selected_text, ''), sources, created_at
	          FROM messages WHERE session_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var sourcesJSON sql.NullString
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Role, &m.Content, &m.SelectedText, &sourcesJSON, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if sourcesJSON.Valid {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &m.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// DeleteMessages clears all messages for a session. The session row is
// kept.
func (s *PostgresStore) DeleteMessages(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// Ping verifies database connectivity for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
