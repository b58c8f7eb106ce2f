// Package cache is the exact-match response cache that sits in front of
// every provider call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/storage"
)

// TTL is how long an entry stays readable after it was written.
const TTL = 5 * time.Minute

// KeyPrefix namespaces cache entries in the shared store.
const KeyPrefix = "cache_"

// Cache maps request fingerprints to previously obtained answers.
type Cache struct {
	store  storage.Storage
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger used for storage failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Cache over store.
func New(store storage.Storage, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		ttl:    TTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fingerprintInput struct {
	Provider string           `json:"provider"`
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
}

// Fingerprint derives the cache key for a provider call. The provider tag
// is kept as a readable prefix so entries never collide across providers.
func Fingerprint(provider, model string, messages []models.Message) string {
	if messages == nil {
		messages = []models.Message{}
	}
	data, _ := json.Marshal(fingerprintInput{Provider: provider, Model: model, Messages: messages})
	sum := sha256.Sum256(data)
	return provider + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached payload for fingerprint. Expired or unreadable
// entries are removed and reported as a miss.
func (c *Cache) Get(ctx context.Context, fingerprint string) (string, bool) {
	key := KeyPrefix + fingerprint
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.Error(err))
		c.misses.Add(1)
		return "", false
	}
	if !ok {
		c.misses.Add(1)
		return "", false
	}

	entry, valid := c.decode(raw)
	if !valid || c.expired(entry) {
		if err := c.store.Remove(ctx, key); err != nil {
			c.logger.Warn("cache evict failed", zap.Error(err))
		}
		c.misses.Add(1)
		return "", false
	}

	c.hits.Add(1)
	return entry.Payload, true
}

// Put stores payload under fingerprint, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, fingerprint, payload string) error {
	data, err := json.Marshal(models.CacheEntry{
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if err := c.store.Set(ctx, KeyPrefix+fingerprint, string(data)); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	keys, err := c.store.ListKeysWithPrefix(ctx, KeyPrefix)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: int64(len(keys)),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes cache entries and returns how many were removed.
// If expiredOnly is true, only expired or unreadable entries are removed.
func (c *Cache) Clear(ctx context.Context, expiredOnly bool) (int, error) {
	keys, err := c.store.ListKeysWithPrefix(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if expiredOnly {
			raw, ok, err := c.store.Get(ctx, key)
			if err != nil {
				return removed, fmt.Errorf("cache clear: %w", err)
			}
			if !ok {
				continue
			}
			if entry, valid := c.decode(raw); valid && !c.expired(entry) {
				continue
			}
		}
		if err := c.store.Remove(ctx, key); err != nil {
			return removed, fmt.Errorf("cache clear: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) decode(raw string) (models.CacheEntry, bool) {
	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return entry, false
	}
	return entry, !entry.CreatedAt.IsZero()
}

func (c *Cache) expired(entry models.CacheEntry) bool {
	return c.now().Sub(entry.CreatedAt) >= c.ttl
}
