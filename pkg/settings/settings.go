// Package settings holds the user's provider credentials and selected model,
// persisted through a storage.Storage.
package settings

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/storage"
)

// Storage keys.
const (
	KeyAPIKey        = "settings_api_key"
	KeySecretKey     = "settings_secret_key"
	KeySelectedModel = "settings_selected_model"
)

// DefaultModel is selected until the user picks another.
const DefaultModel = "gpt-4"

// Settings is safe for concurrent use. Reads never touch storage.
type Settings struct {
	store  storage.Storage
	logger *zap.Logger

	mu            sync.RWMutex
	creds         models.Credentials
	selectedModel string
}

// Option configures Settings.
type Option func(*Settings)

// WithDefaults seeds credentials used until stored values are loaded or set.
func WithDefaults(creds models.Credentials) Option {
	return func(s *Settings) {
		s.creds = creds
	}
}

// WithDefaultModel overrides DefaultModel.
func WithDefaultModel(model string) Option {
	return func(s *Settings) {
		if model != "" {
			s.selectedModel = model
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates Settings backed by store.
func New(store storage.Storage, opts ...Option) *Settings {
	s := &Settings{
		store:         store,
		logger:        zap.NewNop(),
		selectedModel: DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads persisted values. Keys that were never stored keep their
// current value.
func (s *Settings) Load(ctx context.Context) error {
	apiKey, hasAPIKey, err := s.store.Get(ctx, KeyAPIKey)
	if err != nil {
		return fmt.Errorf("load api key: %w", err)
	}
	secretKey, hasSecret, err := s.store.Get(ctx, KeySecretKey)
	if err != nil {
		return fmt.Errorf("load secret key: %w", err)
	}
	model, hasModel, err := s.store.Get(ctx, KeySelectedModel)
	if err != nil {
		return fmt.Errorf("load selected model: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if hasAPIKey {
		s.creds.APIKey = apiKey
	}
	if hasSecret {
		s.creds.SecretKey = secretKey
	}
	if hasModel && model != "" {
		s.selectedModel = model
	}
	return nil
}

// Credentials returns the credentials in effect now.
func (s *Settings) Credentials(context.Context) models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// APIKey returns the stored provider API key.
func (s *Settings) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.APIKey
}

// SecretKey returns the stored secret key used by Baidu.
func (s *Settings) SecretKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.SecretKey
}

// SelectedModel returns the model new turns use by default.
func (s *Settings) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedModel
}

// SetAPIKey stores key and makes it effective for the next dispatch.
func (s *Settings) SetAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, KeyAPIKey, key, func() { s.creds.APIKey = key })
}

// SetSecretKey stores key and makes it effective for the next dispatch.
func (s *Settings) SetSecretKey(ctx context.Context, key string) error {
	return s.set(ctx, KeySecretKey, key, func() { s.creds.SecretKey = key })
}

// SetSelectedModel stores the model used when a caller does not name one.
func (s *Settings) SetSelectedModel(ctx context.Context, model string) error {
	return s.set(ctx, KeySelectedModel, model, func() { s.selectedModel = model })
}

// set updates memory even when persisting fails so the running process
// sees the new value.
func (s *Settings) set(ctx context.Context, key, value string, apply func()) error {
	s.mu.Lock()
	apply()
	s.mu.Unlock()

	if err := s.store.Set(ctx, key, value); err != nil {
		s.logger.Warn("failed to persist setting", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
