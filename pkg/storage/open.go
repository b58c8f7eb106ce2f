package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nextchat-ai/nextchat/pkg/storage/memory"
	redisstore "github.com/nextchat-ai/nextchat/pkg/storage/redis"
	"github.com/nextchat-ai/nextchat/pkg/storage/sqlite"
)

// Type selects a storage driver.
type Type string

const (
	TypeMemory Type = "memory"
	TypeSQLite Type = "sqlite"
	TypeRedis  Type = "redis"
)

// Option configures a store created by New.
type Option func(*openConfig)

type openConfig struct {
	path        string
	redisClient *redis.Client
	namespace   string
}

// WithPath sets the database path for the SQLite driver.
func WithPath(path string) Option {
	return func(c *openConfig) {
		c.path = path
	}
}

// WithRedisClient sets the client for the Redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *openConfig) {
		c.redisClient = client
	}
}

// WithNamespace prefixes every Redis key.
func WithNamespace(ns string) Option {
	return func(c *openConfig) {
		c.namespace = ns
	}
}

// New creates a Storage for the given driver type.
// SQLite requires WithPath; Redis requires WithRedisClient and is pinged.
func New(ctx context.Context, t Type, opts ...Option) (Storage, error) {
	cfg := &openConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch t {
	case TypeMemory, "":
		return memory.New(), nil

	case TypeSQLite:
		if cfg.path == "" {
			return nil, ErrInvalidConfig
		}
		return sqlite.New(cfg.path)

	case TypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		if err := cfg.redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return redisstore.New(cfg.redisClient, cfg.namespace), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, t)
	}
}
