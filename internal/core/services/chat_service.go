package services

import (
	"context"
	"sync"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

// ChatService is the core service that implements the business logic for chat interactions
type ChatService struct {
	agent        *AgentService
	llm          ports.LLMPort
	repository   ports.ChatRepositoryPort
	systemPrompt string
	logger       logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatService creates a new ChatService
func NewChatService(agent *AgentService, llm ports.LLMPort, repository ports.ChatRepositoryPort, systemPrompt string, logger logger.Logger) *ChatService {
	return &ChatService{
		agent:        agent,
		llm:          llm,
		repository:   repository,
		systemPrompt: systemPrompt,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

// CreateChat creates a new chat seeded with the system prompt
func (s *ChatService) CreateChat(ctx context.Context, title string) (*domain.Chat, error) {
	s.logger.Info("Creating new chat", "title", title)
	chat := domain.NewChat(title, s.systemPrompt)
	if err := s.repository.SaveChat(ctx, chat); err != nil {
		s.logger.Error("Failed to save chat", "error", err)
		return nil, err
	}
	return chat, nil
}

// SendMessage runs one turn for a user message and persists the updated chat.
// Turns on the same chat are serialized; a failed turn leaves the stored chat unchanged.
func (s *ChatService) SendMessage(ctx context.Context, chatID, content string, onText TextHandler) (*domain.Chat, TurnResult, error) {
	s.logger.Info("Sending message to chat", "chat_id", chatID)

	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	chat, err := s.repository.GetChat(ctx, chatID)
	if err != nil {
		s.logger.Error("Failed to get chat", "chat_id", chatID, "error", err)
		return nil, TurnResult{}, err
	}

	result, err := s.agent.RunTurn(ctx, chat, content, onText)
	if err != nil {
		s.logger.Error("Failed to generate response", "chat_id", chatID, "error", err)
		return nil, result, err
	}

	if err := s.repository.SaveChat(ctx, chat); err != nil {
		s.logger.Error("Failed to save chat", "chat_id", chatID, "error", err)
		return nil, result, err
	}

	s.logger.Info("Turn completed", "chat_id", chatID, "steps", result.Steps, "done", result.Done, "appended", result.Appended)
	return chat, result, nil
}

// GetChat retrieves a chat by ID
func (s *ChatService) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	s.logger.Info("Getting chat", "chat_id", id)
	return s.repository.GetChat(ctx, id)
}

// ListChats returns all chats
func (s *ChatService) ListChats(ctx context.Context) ([]*domain.Chat, error) {
	s.logger.Info("Listing all chats")
	return s.repository.ListChats(ctx)
}

// DeleteChat deletes a chat by ID
func (s *ChatService) DeleteChat(ctx context.Context, id string) error {
	s.logger.Info("Deleting chat", "chat_id", id)
	if err := s.repository.DeleteChat(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
	return nil
}

// GetModelInfo returns information about the current LLM model
func (s *ChatService) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	s.logger.Info("Getting model information")
	return s.llm.GetModelInfo(ctx)
}

func (s *ChatService) chatLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
