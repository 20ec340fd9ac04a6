// Package ledger tracks serving counts for the items of one meal category and
// derives the category's calorie total from them.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nutrilog/internal/core"
	"nutrilog/internal/kv"
	"nutrilog/internal/log"
	"nutrilog/internal/persist"
)

type Action string

const (
	Increment Action = "increment"
	Decrement Action = "decrement"
)

// TotalReporter receives the category total whenever it may have changed.
type TotalReporter interface {
	UpdateMealCalories(category core.Category, total int) bool
}

type Options struct {
	// Delay is the debounce window for writes. Zero means persist.DefaultDelay.
	Delay    time.Duration
	Reporter TotalReporter
	Logger   *log.Logger
}

// Ledger is the single writer of one category's servings map.
type Ledger struct {
	catalog  core.Catalog
	key      string
	store    kv.Store
	reporter TotalReporter
	logger   *log.Logger
	writer   *persist.Debouncer

	mu        sync.Mutex
	servings  map[string]int
	mutations uint64
	loaded    bool

	// reportMu keeps reports ordered so the last one carries the latest total.
	reportMu sync.Mutex
}

func New(catalog core.Catalog, store kv.Store, opts Options) (*Ledger, error) {
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s catalog: %w", catalog.Category, err)
	}
	delay := opts.Delay
	if delay == 0 {
		delay = persist.DefaultDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	servings := make(map[string]int, len(catalog.Items))
	for _, item := range catalog.Items {
		servings[item.Name] = 0
	}

	return &Ledger{
		catalog:  catalog,
		key:      kv.ServingsKey(catalog.Category.String()),
		store:    store,
		reporter: opts.Reporter,
		logger:   logger.WithComponent(log.ComponentLedger).With(log.FieldCategory, catalog.Category.String()),
		writer:   persist.NewDebouncer(delay),
		servings: servings,
	}, nil
}

func (l *Ledger) Category() core.Category { return l.catalog.Category }

func (l *Ledger) Catalog() core.Catalog { return l.catalog }

// Key is the storage key of this ledger's servings map.
func (l *Ledger) Key() string { return l.key }

// Load adopts the persisted servings map if it is valid. A load that finishes
// after the user already changed a count is discarded so that stale storage
// never overwrites newer in-memory values.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	startMutations := l.mutations
	l.mu.Unlock()

	stored, found := readStored(ctx, l.store, l.key, l.logger)

	l.mu.Lock()
	l.loaded = true
	if found && l.mutations != startMutations {
		l.logger.DebugContext(ctx, "Ignoring stored servings, ledger changed while loading")
	} else if found {
		for name, n := range stored {
			// Items no longer in the catalog are dropped
			if _, ok := l.servings[name]; ok {
				l.servings[name] = n
			}
		}
	}
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "Servings loaded",
		log.FieldOperation, log.OpLoad, log.FieldTotal, l.CategoryTotal())
	l.report()
}

// ReadStored returns the persisted counts of a category without opening a
// ledger. Missing, corrupt or negative data yields all-zero counts.
func ReadStored(ctx context.Context, catalog core.Catalog, store kv.Store, logger *log.Logger) map[string]int {
	counts := make(map[string]int, len(catalog.Items))
	for _, item := range catalog.Items {
		counts[item.Name] = 0
	}
	stored, found := readStored(ctx, store, kv.ServingsKey(catalog.Category.String()), logger)
	if !found {
		return counts
	}
	for name, n := range stored {
		if _, ok := counts[name]; ok {
			counts[name] = n
		}
	}
	return counts
}

func readStored(ctx context.Context, store kv.Store, key string, logger *log.Logger) (map[string]int, bool) {
	var stored map[string]int
	if !persist.LoadJSON(ctx, store, key, &stored, logger) {
		return nil, false
	}
	for _, n := range stored {
		if n < 0 {
			logger.WarnContext(ctx, "Stored servings contain negative counts, using defaults", log.FieldKey, key)
			return nil, false
		}
	}
	return stored, true
}

// Increment adds one serving of the named item.
func (l *Ledger) Increment(name string) bool {
	return l.Update(name, Increment)
}

// Decrement removes one serving of the named item, never going below zero.
func (l *Ledger) Decrement(name string) bool {
	return l.Update(name, Decrement)
}

// Update applies action to the named item and reports whether the count
// changed. Unchanged counts neither persist nor report. An item name that is
// not in the catalog panics.
func (l *Ledger) Update(name string, action Action) bool {
	if !l.apply(name, action) {
		return false
	}
	l.writer.Schedule(l.save)
	l.report()
	return true
}

func (l *Ledger) apply(name string, action Action) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.servings[name]
	if !ok {
		panic(fmt.Sprintf("ledger %s: unknown catalog item %q", l.catalog.Category, name))
	}
	next := current
	switch action {
	case Increment:
		next++
	case Decrement:
		if next > 0 {
			next--
		}
	default:
		panic(fmt.Sprintf("ledger %s: unknown action %q", l.catalog.Category, action))
	}
	if next == current {
		return false
	}
	l.servings[name] = next
	l.mutations++
	return true
}

// Reset zeroes every count, e.g. when a new day starts while the ledger is open.
func (l *Ledger) Reset() bool {
	l.mu.Lock()
	changed := false
	for name, n := range l.servings {
		if n != 0 {
			l.servings[name] = 0
			changed = true
		}
	}
	if changed {
		l.mutations++
	}
	l.mu.Unlock()

	if !changed {
		return false
	}
	l.logger.Info("Servings reset", log.FieldOperation, log.OpReset)
	l.writer.Schedule(l.save)
	l.report()
	return true
}

// Servings returns a copy of the current counts.
func (l *Ledger) Servings() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.servings))
	for k, v := range l.servings {
		out[k] = v
	}
	return out
}

// Count returns the servings of one item. Unknown names panic.
func (l *Ledger) Count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.servings[name]
	if !ok {
		panic(fmt.Sprintf("ledger %s: unknown catalog item %q", l.catalog.Category, name))
	}
	return n
}

// ItemTotal is the calories contributed by one catalog item, priced from this
// ledger's catalog. Items outside the catalog panic.
func (l *Ledger) ItemTotal(item core.CatalogItem) int {
	entry, ok := l.catalog.Item(item.Name)
	if !ok {
		panic(fmt.Sprintf("ledger %s: unknown catalog item %q", l.catalog.Category, item.Name))
	}
	return l.Count(entry.Name) * entry.CaloriesPerServing
}

// CategoryTotal is recomputed from the servings map on every call.
func (l *Ledger) CategoryTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, item := range l.catalog.Items {
		total += l.servings[item.Name] * item.CaloriesPerServing
	}
	return total
}

func (l *Ledger) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Pending reports whether a debounced write is waiting to run.
func (l *Ledger) Pending() bool {
	return l.writer.Pending()
}

// Flush writes pending changes now instead of waiting for the debounce window.
func (l *Ledger) Flush(ctx context.Context) {
	if l.writer.Flush(ctx) {
		l.logger.DebugContext(ctx, "Pending servings flushed", log.FieldOperation, log.OpFlush)
	}
}

// Close drops any pending write. Data not yet flushed may be lost.
func (l *Ledger) Close() {
	if l.writer.Stop() {
		l.logger.Warn("Ledger closed with an unsaved change")
	}
}

func (l *Ledger) save(ctx context.Context) {
	snapshot := l.Servings()
	if err := persist.SaveJSON(ctx, l.store, l.key, snapshot); err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist servings", log.FieldKey, l.key, log.FieldError, err)
		return
	}
	l.logger.DebugContext(ctx, "Servings persisted",
		log.FieldOperation, log.OpSave, log.FieldKey, l.key, log.FieldServings, snapshot)
}

func (l *Ledger) report() {
	if l.reporter == nil {
		return
	}
	l.reportMu.Lock()
	defer l.reportMu.Unlock()
	l.reporter.UpdateMealCalories(l.catalog.Category, l.CategoryTotal())
}
