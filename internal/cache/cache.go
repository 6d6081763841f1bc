// Package cache is the fetch cache for the web adapter: unchanged pages are
// served from here instead of being re-fetched every cycle.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface shared by the memory, disk and layered caches
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a fetched URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "curator:v1:" + hex.EncodeToString(hash[:])
}
