package storage

import (
	"context"
	"fmt"
	"time"
)

// ObjectStore is the interface event processing stores objects through.
// All implementations must be safe for concurrent use.
type ObjectStore interface {
	// Put writes an object under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Exists reports whether an object is present under key.
	// A missing object is not an error.
	Exists(ctx context.Context, key string) (bool, error)

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the store.
	// Idempotent - safe to call multiple times.
	Close() error
}

// EventKey builds the date-partitioned key for a single-event object
func EventKey(now time.Time, eventHash, ext string) string {
	return fmt.Sprintf("events/%04d/%02d/%s.%s", now.Year(), int(now.Month()), eventHash, ext)
}

// MediaKey builds the date-partitioned key for a media object belonging to
// an event
func MediaKey(now time.Time, eventHash, mediaHash, ext string) string {
	return fmt.Sprintf("media/%04d/%02d/%s/%s.%s", now.Year(), int(now.Month()), eventHash, mediaHash, ext)
}
