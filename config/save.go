package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// defaultConfigPath is the default path for the config file
var defaultConfigPath = "config/config.json"

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	path := os.Getenv("CONFIG_PATH")
	if path != "" {
		return path
	}

	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// SaveConfig writes the configuration to a file, omitting secrets
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(config.Redacted(), "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Redacted returns a copy with every secret cleared
func (c *Config) Redacted() *Config {
	redacted := *c
	redacted.LLM.APIKey = ""
	redacted.Search.SerpAPIKey = ""
	redacted.Search.BraveAPIKey = ""
	redacted.Cache.RedisPassword = ""
	return &redacted
}
