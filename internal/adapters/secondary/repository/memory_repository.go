package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

// InMemoryRepository implements the ChatRepositoryPort interface with in-memory storage.
// Chats are stored and returned as copies.
type InMemoryRepository struct {
	chats  map[string]*domain.Chat
	mutex  sync.RWMutex
	logger logger.Logger
}

// NewInMemoryRepository creates a new InMemoryRepository
func NewInMemoryRepository(log logger.Logger) *InMemoryRepository {
	return &InMemoryRepository{
		chats:  make(map[string]*domain.Chat),
		logger: log,
	}
}

// SaveChat saves a chat
func (r *InMemoryRepository) SaveChat(ctx context.Context, chat *domain.Chat) error {
	r.logger.Debug("Saving chat", "chat_id", chat.ID, "messages", len(chat.Messages))

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.chats[chat.ID] = chat.Clone()
	return nil
}

// GetChat retrieves a chat by ID
func (r *InMemoryRepository) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	chat, exists := r.chats[id]
	if !exists {
		r.logger.Warn("Chat not found", "chat_id", id)
		return nil, domain.ErrChatNotFound
	}

	return chat.Clone(), nil
}

// ListChats returns all chats, most recently updated first
func (r *InMemoryRepository) ListChats(ctx context.Context) ([]*domain.Chat, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	chats := make([]*domain.Chat, 0, len(r.chats))
	for _, chat := range r.chats {
		chats = append(chats, chat.Clone())
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].UpdatedAt.Equal(chats[j].UpdatedAt) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	return chats, nil
}

// DeleteChat deletes a chat by ID
func (r *InMemoryRepository) DeleteChat(ctx context.Context, id string) error {
	r.logger.Info("Deleting chat", "chat_id", id)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.chats[id]; !exists {
		r.logger.Warn("Chat not found for deletion", "chat_id", id)
		return domain.ErrChatNotFound
	}

	delete(r.chats, id)
	return nil
}

var _ ports.ChatRepositoryPort = (*InMemoryRepository)(nil)
