package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/core/services/tools"
	"github.com/vibin/search-agent/internal/logger"
	"github.com/vibin/search-agent/internal/metrics"
)

// DefaultMaxSteps is the number of model invocations allowed per turn
const DefaultMaxSteps = 5

// TextHandler receives assistant text as it is streamed
type TextHandler func(text string)

// AgentOptions configures the orchestration loop
type AgentOptions struct {
	MaxSteps      int
	ModelTimeout  time.Duration
	ParallelTools bool
}

// TurnResult summarizes one user turn
type TurnResult struct {
	Answer   string `json:"answer"`
	Steps    int    `json:"steps"`
	Done     bool   `json:"done"`
	Appended int    `json:"appended"`
}

// AgentService drives the model/tool conversation for a single turn
type AgentService struct {
	llm      ports.LLMPort
	registry *tools.Registry
	opts     AgentOptions
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewAgentService creates a new AgentService
func NewAgentService(llm ports.LLMPort, registry *tools.Registry, opts AgentOptions, log logger.Logger, m *metrics.Metrics) *AgentService {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return &AgentService{
		llm:      llm,
		registry: registry,
		opts:     opts,
		logger:   log,
		metrics:  m,
	}
}

// RunTurn appends userText to chat and alternates model calls and tool calls until the
// model answers without tools or MaxSteps model calls have been made. Every tool call is
// answered before the next model call. On error the chat is restored to its state
// before the turn.
func (s *AgentService) RunTurn(ctx context.Context, chat *domain.Chat, userText string, onText TextHandler) (TurnResult, error) {
	log := s.logger.WithField("chat_id", chat.ID)
	before := len(chat.Messages)
	chat.AddMessage(domain.NewUserMessage(userText))

	defs := s.registry.Definitions()
	var result TurnResult

	for step := 1; step <= s.opts.MaxSteps; step++ {
		result.Steps = step

		msg, err := s.callModel(ctx, chat.Messages, defs, onText)
		if err != nil {
			chat.Rewind(before)
			log.Error("Model call failed", "step", step, "error", err)
			return TurnResult{Steps: step}, fmt.Errorf("model call at step %d: %w", step, err)
		}
		chat.AddMessage(msg)
		result.Answer = msg.Content

		if !msg.HasToolCalls() {
			result.Done = true
			break
		}

		log.Info("Model requested tools", "step", step, "calls", len(msg.ToolCalls))
		payloads, err := s.runTools(ctx, msg.ToolCalls)
		if err != nil {
			chat.Rewind(before)
			log.Error("Tool dispatch failed", "step", step, "error", err)
			return TurnResult{Steps: step}, err
		}
		for i, call := range msg.ToolCalls {
			chat.AddMessage(domain.NewToolResultMessage(call.ID, call.Name, payloads[i]))
		}
	}

	if !result.Done {
		s.metrics.IncBudgetExhausted()
		log.Warn("Step budget exhausted", "max_steps", s.opts.MaxSteps)
	}

	result.Appended = len(chat.Messages) - before
	return result, nil
}

func (s *AgentService) callModel(ctx context.Context, history []domain.Message, defs []domain.ToolDefinition, onText TextHandler) (domain.Message, error) {
	if s.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ModelTimeout)
		defer cancel()
	}

	acc := domain.NewAccumulator()
	err := s.llm.StreamResponse(ctx, history, defs, func(chunk domain.Chunk) error {
		acc.Merge(chunk)
		if chunk.Text != "" && onText != nil {
			onText(chunk.Text)
		}
		return nil
	})
	s.metrics.IncModelCall(err == nil)
	if err != nil {
		return domain.Message{}, err
	}

	msg, invalid := acc.Finalize()
	for _, call := range invalid {
		s.logger.Warn("Dropped malformed tool call",
			"index", call.Index, "id", call.ID, "name", call.Name, "arguments", call.Arguments, "error", call.Err)
	}
	return msg, nil
}

// runTools executes the calls and returns their payloads in call order. Names are
// resolved up front so an unknown tool aborts the batch before anything runs.
func (s *AgentService) runTools(ctx context.Context, calls []domain.ToolCall) ([]string, error) {
	for _, call := range calls {
		if _, err := s.registry.Lookup(call.Name); err != nil {
			return nil, err
		}
	}

	payloads := make([]string, len(calls))
	if !s.opts.ParallelTools || len(calls) == 1 {
		for i, call := range calls {
			payload, err := s.invoke(ctx, call)
			if err != nil {
				return nil, err
			}
			payloads[i] = payload
		}
		return payloads, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			payload, err := s.invoke(gctx, call)
			if err != nil {
				return err
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

func (s *AgentService) invoke(ctx context.Context, call domain.ToolCall) (string, error) {
	s.metrics.IncToolCall(call.Name)
	start := time.Now()

	payload, err := s.registry.Invoke(ctx, call)
	if err != nil {
		return "", err
	}

	s.logger.Info("Tool finished", "tool", call.Name, "call_id", call.ID, "payload_bytes", len(payload), "duration", time.Since(start))
	return payload, nil
}
