package models

import "time"

// CacheEntry stores a cached provider response.
type CacheEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Payload     string    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
