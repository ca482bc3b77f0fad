package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vibin/search-agent/internal/core/domain"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	LLM     LLMConfig     `json:"llm" mapstructure:"llm"`
	Agent   AgentConfig   `json:"agent" mapstructure:"agent"`
	Search  SearchConfig  `json:"search" mapstructure:"search"`
	Fetch   FetchConfig   `json:"fetch" mapstructure:"fetch"`
	Extract ExtractConfig `json:"extract" mapstructure:"extract"`
	Shrink  ShrinkConfig  `json:"shrink" mapstructure:"shrink"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `json:"port" mapstructure:"port"`
}

// LLMConfig holds configuration for the model backend
type LLMConfig struct {
	Provider    string        `json:"provider" mapstructure:"provider"` // "openai" or "ollama"
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	Model       string        `json:"model" mapstructure:"model"`
	BaseURL     string        `json:"base_url" mapstructure:"base_url"`
	Temperature float64       `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `json:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// AgentConfig holds the orchestration loop settings
type AgentConfig struct {
	MaxSteps         int    `json:"max_steps" mapstructure:"max_steps"`
	SystemPrompt     string `json:"system_prompt" mapstructure:"system_prompt"`
	SystemPromptFile string `json:"system_prompt_file" mapstructure:"system_prompt_file"`
	ParallelTools    bool   `json:"parallel_tools" mapstructure:"parallel_tools"`
}

// SearchConfig holds configuration for the search backend
type SearchConfig struct {
	Provider      string `json:"provider" mapstructure:"provider"` // "duckduckgo", "serpapi" or "brave"
	SerpAPIKey    string `json:"serpapi_key" mapstructure:"serpapi_key"`
	BraveAPIKey   string `json:"brave_api_key" mapstructure:"brave_api_key"`
	DuckDuckGoURL string `json:"duckduckgo_url" mapstructure:"duckduckgo_url"`
	BraveURL      string `json:"brave_url" mapstructure:"brave_url"`
	MaxResults    int    `json:"max_results" mapstructure:"max_results"`
}

// FetchConfig holds configuration for the page fetcher
type FetchConfig struct {
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	UserAgent    string        `json:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `json:"max_body_bytes" mapstructure:"max_body_bytes"`
	Concurrency  int           `json:"concurrency" mapstructure:"concurrency"`
	PerHostRPS   float64       `json:"per_host_rps" mapstructure:"per_host_rps"`
}

// ExtractConfig holds configuration for main-content extraction and cleaning
type ExtractConfig struct {
	Mode               string   `json:"mode" mapstructure:"mode"` // "heuristic" or "readability"
	MinChars           int      `json:"min_chars" mapstructure:"min_chars"`
	MaxChars           int      `json:"max_chars" mapstructure:"max_chars"`
	ExcerptChars       int      `json:"excerpt_chars" mapstructure:"excerpt_chars"`
	MaxCandidates      int      `json:"max_candidates" mapstructure:"max_candidates"`
	MinLineChars       int      `json:"min_line_chars" mapstructure:"min_line_chars"`
	BoilerplatePattern []string `json:"boilerplate_patterns" mapstructure:"boilerplate_patterns"`
}

// ShrinkConfig holds the limits applied to search results before they re-enter the conversation
type ShrinkConfig struct {
	MaxSources        int `json:"max_sources" mapstructure:"max_sources"`
	MaxCharsPerSource int `json:"max_chars_per_source" mapstructure:"max_chars_per_source"`
	MinChars          int `json:"min_chars" mapstructure:"min_chars"`
}

// CacheConfig holds configuration for the fetched-page cache
type CacheConfig struct {
	Backend       string        `json:"backend" mapstructure:"backend"` // "none", "memory" or "redis"
	TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
	RedisAddr     string        `json:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `json:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `json:"redis_db" mapstructure:"redis_db"`
}

// StorageConfig holds configuration for chat history persistence
type StorageConfig struct {
	Backend    string `json:"backend" mapstructure:"backend"` // "memory" or "sqlite"
	SQLitePath string `json:"sqlite_path" mapstructure:"sqlite_path"`
}

// MetricsConfig toggles the Prometheus collectors
type MetricsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

const defaultSystemPrompt = `You are a research assistant with access to a web_search tool.
Use web_search whenever the question needs current or factual information you are not sure about.
Base your answer on the returned sources, cite their URLs, and say so when the sources are insufficient.`

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "meta-llama/llama-3.3-70b-instruct:free",
			BaseURL:     "https://openrouter.ai/api/v1",
			Temperature: 0,
			MaxTokens:   2048,
			Timeout:     120 * time.Second,
		},
		Agent: AgentConfig{
			MaxSteps:      5,
			SystemPrompt:  defaultSystemPrompt,
			ParallelTools: true,
		},
		Search: SearchConfig{
			Provider:      "duckduckgo",
			DuckDuckGoURL: "https://html.duckduckgo.com/html/",
			BraveURL:      "https://api.search.brave.com/res/v1/web/search",
			MaxResults:    10,
		},
		Fetch: FetchConfig{
			Timeout:      12 * time.Second,
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36",
			MaxBodyBytes: 5 * 1024 * 1024,
			Concurrency:  4,
			PerHostRPS:   2,
		},
		Extract: ExtractConfig{
			Mode:          "heuristic",
			MinChars:      800,
			MaxChars:      9000,
			ExcerptChars:  800,
			MaxCandidates: 2000,
			MinLineChars:  40,
		},
		Shrink: ShrinkConfig{
			MaxSources:        4,
			MaxCharsPerSource: 3000,
			MinChars:          800,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       30 * time.Minute,
			RedisAddr: "localhost:6379",
		},
		Storage: StorageConfig{
			Backend:    "memory",
			SQLitePath: "./data/chats.db",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads configuration from defaults, an optional file and the environment.
// Environment variables use the AGENT_ prefix (AGENT_LLM_MODEL, AGENT_SEARCH_PROVIDER, ...);
// API_KEY and MODEL are honoured as shorthands for the model backend.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	defaults, err := json.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("API_KEY")
	}
	if model := os.Getenv("MODEL"); model != "" && os.Getenv("AGENT_LLM_MODEL") == "" {
		cfg.LLM.Model = model
	}

	if cfg.Agent.SystemPromptFile != "" {
		prompt, err := os.ReadFile(cfg.Agent.SystemPromptFile)
		if err != nil {
			return nil, fmt.Errorf("read system prompt: %w", err)
		}
		cfg.Agent.SystemPrompt = string(prompt)
	}

	return &cfg, nil
}

// Validate reports configuration that makes the process unable to start
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.Model) == "" {
		return domain.ErrMissingModel
	}
	if c.LLM.Provider != "ollama" && strings.TrimSpace(c.LLM.APIKey) == "" {
		return domain.ErrMissingAPIKey
	}
	switch c.Search.Provider {
	case "serpapi":
		if c.Search.SerpAPIKey == "" {
			return fmt.Errorf("search.serpapi_key: %w", domain.ErrMissingAPIKey)
		}
	case "brave":
		if c.Search.BraveAPIKey == "" {
			return fmt.Errorf("search.brave_api_key: %w", domain.ErrMissingAPIKey)
		}
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	return nil
}
