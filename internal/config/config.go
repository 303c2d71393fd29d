// ABOUTME: Configuration management for curate with YAML config loading.
// ABOUTME: Handles embedding endpoint settings, playbook paths, and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding provider names accepted in embedding.provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Defaults for the local Ollama embedding endpoint.
const (
	DefaultBaseURL        = "http://localhost:11434/v1"
	DefaultModel          = "nomic-embed-text"
	DefaultBatchSize      = 64
	DefaultTimeoutSeconds = 60
)

// Config stores curate configuration loaded from ~/.config/curate/config.yaml.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Playbook  PlaybookConfig  `yaml:"playbook"`
}

// EmbeddingConfig holds the embedding endpoint used for semantic deduplication.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	Dimensions     int    `yaml:"dimensions"`
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PlaybookConfig holds an optional override for the playbook file location.
type PlaybookConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:       ProviderOllama,
			BaseURL:        DefaultBaseURL,
			Model:          DefaultModel,
			BatchSize:      DefaultBatchSize,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	d := Default().Embedding
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = d.Provider
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = d.Model
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == ProviderOllama {
		c.Embedding.BaseURL = d.BaseURL
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = d.BatchSize
	}
	if c.Embedding.TimeoutSeconds <= 0 {
		c.Embedding.TimeoutSeconds = d.TimeoutSeconds
	}
}

// ApplyEnv fills the API key from OPENAI_API_KEY when the file leaves it empty.
func (c *Config) ApplyEnv() {
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// GetPlaybookPath returns the playbook file, defaulting to <project>/.claude/playbook.json.
func (c *Config) GetPlaybookPath() (string, error) {
	if c.Playbook.Path != "" {
		return ExpandPath(c.Playbook.Path)
	}
	projectDir, err := ProjectDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(projectDir, ".claude", "playbook.json"), nil
}

// ProjectDir returns $CLAUDE_PROJECT_DIR, falling back to the working directory.
func ProjectDir() (string, error) {
	if dir := os.Getenv("CLAUDE_PROJECT_DIR"); dir != "" {
		return ExpandPath(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "curate", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
