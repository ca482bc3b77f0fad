package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/search-agent/internal/core/domain"
)

func newTestDB(t *testing.T) *ChatDatabase {
	t.Helper()
	db, err := NewChatDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleChat() *domain.Chat {
	chat := domain.NewChat("Bridges", "You are a research assistant.")
	chat.AddMessage(domain.NewUserMessage("When did the harbour bridge open?"))
	chat.AddMessage(domain.NewAssistantMessage("", []domain.ToolCall{
		{ID: "call_1", Name: "web_search", Args: map[string]any{"query": "harbour bridge opening"}},
	}))
	chat.AddMessage(domain.NewToolResultMessage("call_1", "web_search", `[{"url":"https://example.com"}]`))
	chat.AddMessage(domain.NewAssistantMessage("It opened in 1932.", nil))
	return chat
}

func TestChatDatabase_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	chat := sampleChat()

	require.NoError(t, db.SaveChat(ctx, chat))

	got, err := db.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)
	assert.Equal(t, "Bridges", got.Title)
	assert.True(t, chat.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Messages, 5)

	for i, m := range chat.Messages {
		assert.Equal(t, m.ID, got.Messages[i].ID)
		assert.Equal(t, m.Role, got.Messages[i].Role)
		assert.Equal(t, m.Content, got.Messages[i].Content)
		assert.Equal(t, m.ToolCallID, got.Messages[i].ToolCallID)
		assert.Equal(t, m.ToolName, got.Messages[i].ToolName)
	}
	require.Len(t, got.Messages[2].ToolCalls, 1)
	assert.Equal(t, "web_search", got.Messages[2].ToolCalls[0].Name)
	assert.Equal(t, "harbour bridge opening", got.Messages[2].ToolCalls[0].Args["query"])
	assert.Nil(t, got.Messages[4].ToolCalls)
}

func TestChatDatabase_SaveReplacesMessages(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	chat := sampleChat()
	require.NoError(t, db.SaveChat(ctx, chat))

	chat.Rewind(2)
	chat.Title = "Renamed"
	require.NoError(t, db.SaveChat(ctx, chat))

	got, err := db.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Len(t, got.Messages, 2)
}

func TestChatDatabase_ListOrdersByUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	older := domain.NewChat("older", "")
	older.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := domain.NewChat("newer", "")
	newer.UpdatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveChat(ctx, older))
	require.NoError(t, db.SaveChat(ctx, newer))

	chats, err := db.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "newer", chats[0].Title)
	assert.Equal(t, "older", chats[1].Title)
	assert.Empty(t, chats[0].Messages)
}

func TestChatDatabase_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	chat := sampleChat()
	require.NoError(t, db.SaveChat(ctx, chat))

	require.NoError(t, db.DeleteChat(ctx, chat.ID))

	_, err := db.GetChat(ctx, chat.ID)
	assert.ErrorIs(t, err, domain.ErrChatNotFound)
	assert.ErrorIs(t, db.DeleteChat(ctx, chat.ID), domain.ErrChatNotFound)

	var orphans int
	require.NoError(t, db.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestChatDatabase_FileBacked(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "chats.db")

	db, err := NewChatDatabase(path)
	require.NoError(t, err)
	chat := sampleChat()
	require.NoError(t, db.SaveChat(ctx, chat))
	require.NoError(t, db.Close())

	reopened, err := NewChatDatabase(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 5)
}
