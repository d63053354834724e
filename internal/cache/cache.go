// Package cache stores fetched document content so a dataset referencing the
// same source many times is fetched once.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a document URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "scholar:v1:" + hex.EncodeToString(hash[:])
}

// DefaultDir returns the default disk cache location, ~/.scholar/cache
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scholar-cache"
	}
	return filepath.Join(home, ".scholar", "cache")
}
