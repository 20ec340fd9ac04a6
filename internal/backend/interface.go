package backend

import (
	"context"
	"time"

	"nutrilog/internal/cache"
	"nutrilog/internal/kv"
)

// CleanupFunc releases the resources held by a backend
type CleanupFunc func() error

// Result contains the store and optional cleanup function
type Result struct {
	Store kv.Store
	// Cache is set when the store is wrapped with an LRU cache, so that the
	// caller can schedule expiry cleanup for it.
	Cache   cache.Cleaner
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLitePath string
	BoltPath   string

	// CacheSize of 0 disables the cache
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	BoltBackend   BackendType = "bolt"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, BoltBackend:
		return true
	default:
		return false
	}
}
