package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

// SQLiteStore persists conversations in a single SQLite database file.
// It implements the same merge-on-save semantics as FileStore.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) conversations.db under root.
func NewSQLiteStore(root string) (*SQLiteStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "conversations.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		summary TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) readMessages(conversationID string) ([]llm.Message, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM messages WHERE conversation_id = ? ORDER BY seq`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var msg llm.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("failed to parse stored message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SaveMessages merges the new messages with the stored transcript and
// rewrites the conversation rows in one transaction.
func (s *SQLiteStore) SaveMessages(conversationID string, messages []llm.Message) error {
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.readMessages(conversationID)
	if err != nil {
		return err
	}

	combined := llm.ValidateMessages(append(stored, messages...))

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return err
	}
	for _, msg := range combined {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO messages (conversation_id, payload) VALUES (?, ?)`,
			conversationID, string(payload)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO conversations (id, updated_at) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		conversationID, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadMessages(conversationID string, limit int) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.readMessages(conversationID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	messages = llm.ValidateMessages(messages)
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (s *SQLiteStore) SaveSummary(conversationID string, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO conversations (id, summary, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at`,
		conversationID, summary, time.Now().UTC())
	return err
}

func (s *SQLiteStore) LoadSummary(conversationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary string
	err := s.db.QueryRow(
		`SELECT summary FROM conversations WHERE id = ?`, conversationID).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (s *SQLiteStore) ListConversations() ([]ConversationInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT c.id, c.updated_at, COUNT(m.seq)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []ConversationInfo
	for rows.Next() {
		var info ConversationInfo
		if err := rows.Scan(&info.ID, &info.UpdatedAt, &info.MessageCount); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) DeleteConversation(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
