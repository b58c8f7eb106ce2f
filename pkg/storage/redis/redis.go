// Package redis implements storage.Storage on Redis.
package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Store is a key-value store backed by Redis. All keys are stored under
// an optional namespace so several clients can share one database.
type Store struct {
	client    *redis.Client
	namespace string
}

// New creates a Store using client. namespace may be empty.
func New(client *redis.Client, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

// Get implements storage.Storage.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Set implements storage.Storage. Values do not expire at the Redis level.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Remove implements storage.Storage.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// ListKeysWithPrefix implements storage.Storage using SCAN.
func (s *Store) ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(s.key(prefix)) + "*"
	var keys []string
	iter := s.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements storage.Storage.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.namespace + k
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
