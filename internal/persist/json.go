package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nutrilog/internal/kv"
	"nutrilog/internal/log"
)

// LoadJSON decodes the value stored under key into dst. A missing key, a
// read error and a corrupt blob are all treated as "no data": the function
// logs and returns false, leaving dst untouched.
func LoadJSON(ctx context.Context, store kv.Store, key string, dst any, logger *log.Logger) bool {
	raw, ok := loadRaw(ctx, store, key, logger)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.WarnContext(ctx, "Stored value is corrupt, using defaults",
			log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// SaveJSON encodes v and writes it under key.
func SaveJSON(ctx context.Context, store kv.Store, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(body)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadString reads a plain string value. JSON-quoted values are unquoted so
// that both raw and JSON-encoded writers are accepted.
func LoadString(ctx context.Context, store kv.Store, key string, logger *log.Logger) (string, bool) {
	raw, ok := loadRaw(ctx, store, key, logger)
	if !ok {
		return "", false
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		return unquoted, true
	}
	return raw, true
}

// LoadInt reads an integer stored either as a decimal string ("3") or as a
// JSON number or string. Anything else falls back to zero.
func LoadInt(ctx context.Context, store kv.Store, key string, logger *log.Logger) (int, bool) {
	s, ok := LoadString(ctx, store, key, logger)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		logger.WarnContext(ctx, "Stored integer is corrupt, using zero",
			log.FieldKey, key, log.FieldError, err)
		return 0, false
	}
	return n, true
}

func loadRaw(ctx context.Context, store kv.Store, key string, logger *log.Logger) (string, bool) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		logger.DebugContext(ctx, "No stored value", log.FieldKey, key)
		return "", false
	}
	if err != nil {
		logger.WarnContext(ctx, "Failed to read stored value, using defaults",
			log.FieldKey, key, log.FieldError, err)
		return "", false
	}
	return raw, true
}
