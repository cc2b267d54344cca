// Package cache provides a small generic TTL cache with LRU eviction.
// The clock is injected so expiry is testable and never ambient state.
package cache

import "time"

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// Clock returns the current time. Defaults to time.Now.
type Clock func() time.Time
