package backend

import (
	"context"
	"fmt"

	"nutrilog/internal/cache"
	"nutrilog/internal/kv/bolt"
	"nutrilog/internal/kv/cached"
	"nutrilog/internal/kv/memory"
	"nutrilog/internal/kv/sqlite"
	"nutrilog/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *Result
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case BoltBackend:
		result, err = f.createBoltBackend(ctx, config)
	case MemoryBackend:
		result = f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheSize > 0 {
		lru := cache.NewLRUCache[string](config.CacheSize, config.CacheTTL)
		result.Store = cached.New(result.Store, lru)
		result.Cache = lru
		f.logger.InfoContext(ctx, "Enabled store cache",
			"size", config.CacheSize, "ttl", config.CacheTTL)
	}

	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := sqlite.NewStore(config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLitePath)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createBoltBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := bolt.Open(config.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized bolt backend", "db_path", config.BoltPath)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) *Result {
	f.logger.WarnContext(ctx, "Initialized memory backend, data is lost on exit")

	return &Result{
		Store:   memory.New(),
		Cleanup: nil, // No cleanup needed for memory backend
	}
}
