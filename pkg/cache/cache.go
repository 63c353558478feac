// Package cache stores rendered calendar artifacts between runs.
//
// Two backends are provided: FileCache keeps entries as JSON files under a
// directory (the CLI default) and RedisCache shares them through a Redis
// server. NullCache disables caching. Keys are built by a Keyer from the
// dataset fingerprint and the render options, so a changed dataset or a
// changed option never hits a stale entry.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Stats describes the contents of a cache.
type Stats struct {
	Backend  string `json:"backend"`
	Location string `json:"location,omitempty"`
	Entries  int    `json:"entries"`
	Bytes    int64  `json:"bytes"`
}

// Inspector is implemented by caches that can report Stats.
type Inspector interface {
	Stats(ctx context.Context) (Stats, error)
}
