package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nextchat-ai/nextchat/pkg/models"
)

// Config holds all nextchat configuration.
type Config struct {
	Listen       string             `yaml:"listen"`
	LogLevel     string             `yaml:"log_level"`
	Storage      StorageConfig      `yaml:"storage"`
	Credentials  models.Credentials `yaml:"credentials"`
	DefaultModel string             `yaml:"default_model"`
	Providers    ProvidersConfig    `yaml:"providers"`
	History      HistoryConfig      `yaml:"history"`
	CORS         CORSConfig         `yaml:"cors"`
}

// StorageConfig selects the key-value backend.
// Type is "memory", "sqlite" (default) or "redis".
type StorageConfig struct {
	Type  string      `yaml:"type"`
	Path  string      `yaml:"path"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig is used when Storage.Type is "redis".
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

// ProvidersConfig overrides upstream endpoint roots.
type ProvidersConfig struct {
	OpenAI ProviderConfig `yaml:"openai"`
	Gemini ProviderConfig `yaml:"gemini"`
	Baidu  ProviderConfig `yaml:"baidu"`
	Qwen   ProviderConfig `yaml:"qwen"`
	Zhipu  ProviderConfig `yaml:"zhipu"`
}

// ProviderConfig defines an upstream LLM provider. An empty BaseURL uses
// the provider's public endpoint.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
}

// HistoryConfig bounds the persisted session list.
type HistoryConfig struct {
	MaxMessages int `yaml:"max_messages"`
	MaxSessions int `yaml:"max_sessions"`
}

// CORSConfig controls the HTTP shell's CORS policy.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
		Storage: StorageConfig{
			Type: "sqlite",
			Path: "nextchat.db",
		},
		DefaultModel: "gpt-4",
		History: HistoryConfig{
			MaxMessages: 100,
			MaxSessions: 10,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
