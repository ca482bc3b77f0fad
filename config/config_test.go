package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/search-agent/internal/core/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Agent.MaxSteps)
	assert.Equal(t, 12*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 800, cfg.Extract.MinChars)
	assert.Equal(t, 9000, cfg.Extract.MaxChars)
	assert.Equal(t, 4, cfg.Shrink.MaxSources)
	assert.Equal(t, 3000, cfg.Shrink.MaxCharsPerSource)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, "duckduckgo", cfg.Search.Provider)
	assert.NotEmpty(t, cfg.Agent.SystemPrompt)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"agent": {"max_steps": 3},
		"search": {"provider": "serpapi", "serpapi_key": "from-file"},
		"shrink": {"max_sources": 2}
	}`), 0644))

	t.Setenv("AGENT_SHRINK_MAX_SOURCES", "6")
	t.Setenv("API_KEY", "sk-env")
	t.Setenv("MODEL", "gpt-4o-mini")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Agent.MaxSteps)
	assert.Equal(t, "serpapi", cfg.Search.Provider)
	assert.Equal(t, "from-file", cfg.Search.SerpAPIKey)
	assert.Equal(t, 6, cfg.Shrink.MaxSources)
	assert.Equal(t, 3000, cfg.Shrink.MaxCharsPerSource)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadConfig_SystemPromptFile(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("Answer in French."), 0644))
	t.Setenv("AGENT_AGENT_SYSTEM_PROMPT_FILE", promptPath)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "Answer in French.", cfg.Agent.SystemPrompt)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "sk-test"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.LLM.APIKey = ""
	assert.ErrorIs(t, cfg.Validate(), domain.ErrMissingAPIKey)

	cfg.LLM.Provider = "ollama"
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.LLM.Model = " "
	assert.ErrorIs(t, cfg.Validate(), domain.ErrMissingModel)

	cfg = valid()
	cfg.Search.Provider = "brave"
	assert.ErrorIs(t, cfg.Validate(), domain.ErrMissingAPIKey)

	cfg = valid()
	cfg.Agent.MaxSteps = 0
	assert.ErrorContains(t, cfg.Validate(), "max_steps")
}

func TestSaveConfig_OmitsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "sk-secret"
	cfg.Search.BraveAPIKey = "brave-secret"
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")
	assert.NotContains(t, string(data), "brave-secret")
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Fetch.Timeout, reloaded.Fetch.Timeout)
}
