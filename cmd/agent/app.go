package main

import (
	"context"
	"fmt"
	"io"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/adapters/secondary/cache"
	"github.com/vibin/search-agent/internal/adapters/secondary/database"
	"github.com/vibin/search-agent/internal/adapters/secondary/fetcher"
	"github.com/vibin/search-agent/internal/adapters/secondary/llm"
	"github.com/vibin/search-agent/internal/adapters/secondary/repository"
	"github.com/vibin/search-agent/internal/adapters/secondary/websearch"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/core/services"
	"github.com/vibin/search-agent/internal/core/services/extract"
	"github.com/vibin/search-agent/internal/core/services/tools"
	"github.com/vibin/search-agent/internal/logger"
	"github.com/vibin/search-agent/internal/metrics"
)

// app holds the wired adapters and services
type app struct {
	cfg       *config.Config
	logger    logger.Logger
	metrics   *metrics.Metrics
	search    *tools.WebSearchTool
	fetchTool *tools.FetchPageTool
	chats     *services.ChatService
	closers   []io.Closer
}

// newSearchApp wires everything the search tool needs; no model backend is required
func newSearchApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	cleaner, err := extract.NewCleaner(cfg.Extract.MinLineChars, cfg.Extract.BoilerplatePattern...)
	if err != nil {
		return nil, fmt.Errorf("boilerplate patterns: %w", err)
	}
	extractor := extract.NewExtractor(
		extract.Mode(cfg.Extract.Mode),
		extract.NewLocator(cfg.Extract.MinChars, cfg.Extract.MaxCandidates),
		cleaner,
	)

	pageCache, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		return nil, err
	}
	if c, ok := pageCache.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	reader := tools.NewPageReader(
		fetcher.NewHTTPFetcher(&cfg.Fetch, log.WithField("component", "fetcher")),
		extractor,
		pageCache,
		tools.ReaderOptions{
			MaxChars:     cfg.Extract.MaxChars,
			ExcerptChars: cfg.Extract.ExcerptChars,
			Concurrency:  cfg.Fetch.Concurrency,
		},
		log,
		a.metrics,
	)

	backend, err := newSearchBackend(&cfg.Search, cfg.Fetch.UserAgent, log)
	if err != nil {
		return nil, err
	}

	shrink := tools.ShrinkOptions{
		MaxSources:        cfg.Shrink.MaxSources,
		MaxCharsPerSource: cfg.Shrink.MaxCharsPerSource,
		MinChars:          cfg.Shrink.MinChars,
	}
	a.search = tools.NewWebSearchTool(backend, reader, shrink, cfg.Search.MaxResults, log, a.metrics)
	a.fetchTool = tools.NewFetchPageTool(reader)
	return a, nil
}

// newApp wires the full agent: search tools, model backend, chat storage
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := newSearchApp(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	llmAdapter, err := llm.NewLangChainAdapter(&cfg.LLM, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("initialize model backend: %w", err)
	}

	repo, err := newRepository(&cfg.Storage, log)
	if err != nil {
		a.close()
		return nil, err
	}
	if c, ok := repo.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	agent := services.NewAgentService(
		llmAdapter,
		tools.NewRegistry(a.search, a.fetchTool),
		services.AgentOptions{
			MaxSteps:      cfg.Agent.MaxSteps,
			ModelTimeout:  cfg.LLM.Timeout,
			ParallelTools: cfg.Agent.ParallelTools,
		},
		log,
		a.metrics,
	)
	a.chats = services.NewChatService(agent, llmAdapter, repo, cfg.Agent.SystemPrompt, log)
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("Failed to close resource", "error", err)
		}
	}
}

func newSearchBackend(cfg *config.SearchConfig, userAgent string, log logger.Logger) (ports.WebSearchPort, error) {
	log.Info("Initializing web search adapter", "provider", cfg.Provider)
	switch cfg.Provider {
	case "duckduckgo", "":
		return websearch.NewDuckDuckGoAdapter(cfg, userAgent, log), nil
	case "serpapi":
		return websearch.NewSerpAPIAdapter(cfg, log), nil
	case "brave":
		return websearch.NewBraveAdapter(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

func newRepository(cfg *config.StorageConfig, log logger.Logger) (ports.ChatRepositoryPort, error) {
	switch cfg.Backend {
	case "memory", "":
		return repository.NewInMemoryRepository(log), nil
	case "sqlite":
		db, err := database.NewChatDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open chat database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
