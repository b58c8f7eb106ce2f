// Package storage defines the key-value store used for cached responses,
// settings, and the persisted session list.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage construction.
var (
	ErrInvalidConfig    = errors.New("invalid storage configuration")
	ErrInvalidStoreType = errors.New("invalid storage type")
)

// Storage is an opaque string key-value store.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value for key. A missing key is ok == false, not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// ListKeysWithPrefix returns all keys starting with prefix.
	ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
