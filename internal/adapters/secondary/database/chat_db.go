package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
)

const inMemoryPath = ":memory:"

// ChatDatabase implements the ChatRepositoryPort interface on SQLite
type ChatDatabase struct {
	db *sql.DB
}

// NewChatDatabase opens (and if needed creates) the chat database at path
func NewChatDatabase(path string) (*ChatDatabase, error) {
	if path != inMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database
	if path == inMemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &ChatDatabase{db: db}, nil
}

// createSchema creates the chat tables if they don't exist
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT,
			tool_call_id TEXT,
			tool_name TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (chat_id, seq)
		)
	`)
	return err
}

// Close closes the database connection
func (d *ChatDatabase) Close() error {
	return d.db.Close()
}

// SaveChat replaces the stored copy of chat
func (d *ChatDatabase) SaveChat(ctx context.Context, chat *domain.Chat) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`, chat.ID, chat.Title, formatTime(chat.CreatedAt), formatTime(chat.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save chat: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chat.ID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (chat_id, seq, id, role, content, tool_calls, tool_call_id, tool_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range chat.Messages {
		var calls sql.NullString
		if len(m.ToolCalls) > 0 {
			data, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return err
			}
			calls = sql.NullString{String: string(data), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, chat.ID, i, m.ID, string(m.Role), m.Content, calls,
			nullString(m.ToolCallID), nullString(m.ToolName), formatTime(m.CreatedAt))
		if err != nil {
			return fmt.Errorf("save message %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetChat retrieves a chat with its messages in order
func (d *ChatDatabase) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	var chat domain.Chat
	var createdAt, updatedAt string
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, id,
	).Scan(&chat.ID, &chat.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	chat.CreatedAt = parseTime(createdAt)
	chat.UpdatedAt = parseTime(updatedAt)

	messages, err := d.getMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	chat.Messages = messages
	return &chat, nil
}

func (d *ChatDatabase) getMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, role, content, tool_calls, tool_call_id, tool_name, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY seq
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var role, createdAt string
		var calls, callID, toolName sql.NullString
		if err := rows.Scan(&m.ID, &role, &m.Content, &calls, &callID, &toolName, &createdAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		m.ToolCallID = callID.String
		m.ToolName = toolName.String
		m.CreatedAt = parseTime(createdAt)
		if calls.Valid {
			if err := json.Unmarshal([]byte(calls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls of message %s: %w", m.ID, err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListChats returns all chats, most recently updated first
func (d *ChatDatabase) ListChats(ctx context.Context) ([]*domain.Chat, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id FROM chats ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chats := make([]*domain.Chat, 0, len(ids))
	for _, id := range ids {
		chat, err := d.GetChat(ctx, id)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// DeleteChat deletes a chat and its messages
func (d *ChatDatabase) DeleteChat(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}

// Timestamps are stored as fixed-width UTC text so ORDER BY sorts chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ ports.ChatRepositoryPort = (*ChatDatabase)(nil)
