// Package kvstore abstracts the ephemeral shared state of the ingestion
// pipeline (replay cache, ingest tokens, quota counters) behind a small
// TTL key-value interface. The default in-process implementation keeps the
// pipeline self-contained; the Redis implementation lets multiple instances
// share replay and quota guarantees.
package kvstore

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiry. All operations are safe for
// concurrent use.
type Store interface {
	// Get returns the value stored under key, with ok=false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key for the given TTL, replacing any previous
	// value and expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores value only when key is absent, and reports whether it
	// stored. Used for single-winner markers (replay cache, token use).
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Incr increments the counter at key and returns the new value. The TTL is
	// applied when the counter is first created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes key if present.
	Delete(ctx context.Context, key string) error
}
