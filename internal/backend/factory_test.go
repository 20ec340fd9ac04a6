package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrilog/internal/config"
	"nutrilog/internal/kv"
	"nutrilog/internal/log"
)

func TestCreateBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	configs := map[string]Config{
		"memory": {Type: MemoryBackend},
		"sqlite": {Type: SQLiteBackend, SQLitePath: filepath.Join(dir, "kv.db")},
		"bolt":   {Type: BoltBackend, BoltPath: filepath.Join(dir, "kv.bolt")},
		"cached sqlite": {
			Type:       SQLiteBackend,
			SQLitePath: filepath.Join(dir, "cached.db"),
			CacheSize:  8,
			CacheTTL:   time.Minute,
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			result, err := NewFactory(log.Discard()).CreateBackend(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, result.Close()) })

			assert.Equal(t, cfg.CacheSize > 0, result.Cache != nil)

			require.NoError(t, result.Store.Set(ctx, kv.KeyWaterGlasses, "3"))
			got, err := result.Store.Get(ctx, kv.KeyWaterGlasses)
			require.NoError(t, err)
			assert.Equal(t, "3", got)

			require.NoError(t, result.Store.Delete(ctx, kv.KeyWaterGlasses))
			_, err = result.Store.Get(ctx, kv.KeyWaterGlasses)
			assert.ErrorIs(t, err, kv.ErrNotFound)
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"bolt without path", Config{Type: BoltBackend}},
		{"negative cache", Config{Type: MemoryBackend, CacheSize: -1}},
		{"cache without ttl", Config{Type: MemoryBackend, CacheSize: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(log.Discard()).CreateBackend(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend: "bolt",
		BoltPath:    "./data/x.bolt",
		CacheSize:   16,
		CacheTTL:    time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: BoltBackend, BoltPath: "./data/x.bolt", CacheSize: 16, CacheTTL: time.Minute}, cfg)
	assert.Equal(t, []string{"memory", "sqlite", "bolt"}, GetBackendTypeStrings())
}
