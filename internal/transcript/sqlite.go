// ABOUTME: SQLite-backed transcript of inbound and outbound activities using modernc.org/sqlite
// ABOUTME: Append-only audit log per conversation with automatic schema creation

package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2389/parley-gateway/internal/activity"
)

// Direction of a recorded activity relative to the gateway.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Entry is one recorded activity.
type Entry struct {
	ID             string
	ActivityID     string
	ConversationID string
	ChannelID      string
	Direction      string
	Type           string
	Name           string
	Author         string
	Text           string
	CreatedAt      time.Time
}

// Store is an append-only SQLite transcript of activities. It is an audit
// log, not a state backend: the turn pipeline never reads it, and a failed
// write never fails a turn.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) a transcript database at the given path.
// Parent directories are created if needed; pass ":memory:" for tests.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transcript")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating transcript directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript database: %w", err)
	}

	// WAL mode for better concurrent write performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating transcript schema: %w", err)
	}

	logger.Info("transcript store initialized", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			activity_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_activities_conversation
			ON activities(conversation_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one activity to the transcript.
func (s *Store) Record(ctx context.Context, direction string, a *activity.Activity) error {
	conversationID := ""
	if a.Conversation != nil {
		conversationID = a.Conversation.ID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, activity_id, conversation_id, channel_id, direction, type, name, author, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), a.ID, conversationID, a.ChannelID,
		direction, a.Type, a.Name, a.From.ID, a.Text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// ListByConversation returns the most recent entries for a conversation in
// chronological order, up to limit.
func (s *Store) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_id, conversation_id, channel_id, direction, type, name, author, text, created_at
		FROM (
			SELECT * FROM activities
			WHERE conversation_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		)
		ORDER BY created_at ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transcript: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.ActivityID, &e.ConversationID, &e.ChannelID,
			&e.Direction, &e.Type, &e.Name, &e.Author, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transcript entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
