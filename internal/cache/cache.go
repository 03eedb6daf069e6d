// Package cache provides the key/value backends behind the card lookup cache.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry time-to-live
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
