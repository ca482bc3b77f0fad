package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/logger"
)

func TestInMemoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository(logger.Nop())

	chat := domain.NewChat("bridges", "sys")
	chat.AddMessage(domain.NewUserMessage("when did it open?"))
	require.NoError(t, repo.SaveChat(ctx, chat))

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.Messages, got.Messages)

	got.AddMessage(domain.NewAssistantMessage("1932", nil))
	again, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, again.Messages, 2, "stored chat must not alias returned copies")
}

func TestInMemoryRepository_NotFound(t *testing.T) {
	repo := NewInMemoryRepository(logger.Nop())

	_, err := repo.GetChat(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrChatNotFound))
	assert.True(t, errors.Is(repo.DeleteChat(context.Background(), "nope"), domain.ErrChatNotFound))
}

func TestInMemoryRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository(logger.Nop())

	older := domain.NewChat("older", "")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := domain.NewChat("newer", "")
	require.NoError(t, repo.SaveChat(ctx, older))
	require.NoError(t, repo.SaveChat(ctx, newer))

	chats, err := repo.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "newer", chats[0].Title)

	require.NoError(t, repo.DeleteChat(ctx, newer.ID))
	chats, err = repo.ListChats(ctx)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}
