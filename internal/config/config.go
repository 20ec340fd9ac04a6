package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"

	"nutrilog/internal/log"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendBolt}

type Config struct {
	// Storage
	DataBackend string `env:"NUTRILOG_DATA_BACKEND" envDefault:"sqlite"`
	SQLitePath  string `env:"NUTRILOG_SQLITE_PATH" envDefault:"./data/nutrilog.db"`
	BoltPath    string `env:"NUTRILOG_BOLT_PATH" envDefault:"./data/nutrilog.bolt"`

	// Cache in front of the store, 0 disables it
	CacheSize int           `env:"NUTRILOG_CACHE_SIZE" envDefault:"64"`
	CacheTTL  time.Duration `env:"NUTRILOG_CACHE_TTL" envDefault:"10m"`

	// Goals
	CalorieGoal int `env:"NUTRILOG_CALORIE_GOAL" envDefault:"2150"`
	WaterGoal   int `env:"NUTRILOG_WATER_GOAL" envDefault:"8"`

	// Timing
	PersistDebounce   time.Duration `env:"NUTRILOG_PERSIST_DEBOUNCE" envDefault:"500ms"`
	AnimationDuration time.Duration `env:"NUTRILOG_ANIMATION_DURATION" envDefault:"500ms"`
	RolloverSchedule  string        `env:"NUTRILOG_ROLLOVER_SCHEDULE" envDefault:"0 0 * * *"`
	SummaryInterval   time.Duration `env:"NUTRILOG_SUMMARY_INTERVAL" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// RolloverOff turns the scheduled rollover job off. An empty schedule does too.
const RolloverOff = "off"

// RolloverDisabled reports whether the scheduled rollover job is turned off.
// The new-day check at startup still runs.
func (c *Config) RolloverDisabled() bool {
	s := strings.TrimSpace(c.RolloverSchedule)
	return s == "" || strings.EqualFold(s, RolloverOff)
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if msg := checkDataPath("SQLite database", c.SQLitePath); msg != "" {
			errors = append(errors, msg)
		}
	case BackendBolt:
		if msg := checkDataPath("bolt database", c.BoltPath); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive when the cache is enabled", c.CacheTTL))
	}

	if c.CalorieGoal < 1 {
		errors = append(errors, fmt.Sprintf("invalid calorie goal %d: must be at least 1", c.CalorieGoal))
	}
	if c.WaterGoal < 1 {
		errors = append(errors, fmt.Sprintf("invalid water goal %d: must be at least 1", c.WaterGoal))
	}

	if c.PersistDebounce < 0 || c.PersistDebounce > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid persist debounce %v: must be between 0 and 1 minute", c.PersistDebounce))
	}
	if c.AnimationDuration < 0 || c.AnimationDuration > 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid animation duration %v: must be between 0 and 10 seconds", c.AnimationDuration))
	}
	if !c.RolloverDisabled() {
		if _, err := cron.ParseStandard(c.RolloverSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rollover schedule '%s': %v", c.RolloverSchedule, err))
		}
	}
	if c.SummaryInterval != 0 && c.SummaryInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary interval %v: must be 0 or at least 1 second", c.SummaryInterval))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// checkDataPath makes sure the directory of a database file exists or can be created.
func checkDataPath(label, path string) string {
	if path == "" {
		return fmt.Sprintf("%s path cannot be empty", label)
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create %s directory '%s': %v", label, dir, err)
		}
	}
	return ""
}
