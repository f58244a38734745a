// Package cache holds short-lived one-shot markers: authorization codes that have
// been exchanged and access tokens that were revoked before their expiry.
package cache

import (
	"context"
	"time"
)

// MarkStore remembers keys for a bounded time.
type MarkStore interface {
	// Mark records key for ttl. It reports false when the key was already marked,
	// which makes it usable as an atomic claim.
	Mark(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// IsMarked reports whether key is currently marked
	IsMarked(ctx context.Context, key string) (bool, error)
}
