// Package tracker wires the daily aggregate, the servings ledgers of the open
// meal screens and the background jobs that keep them current.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"nutrilog/internal/cache"
	"nutrilog/internal/clock"
	"nutrilog/internal/config"
	"nutrilog/internal/core"
	"nutrilog/internal/daily"
	"nutrilog/internal/kv"
	"nutrilog/internal/ledger"
	"nutrilog/internal/log"
	"nutrilog/internal/persist"
	"nutrilog/internal/progress"
)

const rolloverTimeout = 10 * time.Second

type Options struct {
	Goals             daily.Goals
	PersistDebounce   time.Duration
	AnimationDuration time.Duration
	// RolloverSchedule is a standard cron expression; empty disables the job.
	RolloverSchedule string
	// Catalogs defaults to core.DefaultCatalogs.
	Catalogs map[core.Category]core.Catalog

	// Cache, when set, is cleaned of expired entries every CacheCleanupInterval.
	Cache                cache.Cleaner
	CacheCleanupInterval time.Duration

	Clock  clock.Clock
	Logger *log.Logger
}

// OptionsFromConfig maps the application config onto tracker options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Goals:                daily.Goals{Calories: cfg.CalorieGoal, Water: cfg.WaterGoal},
		PersistDebounce:      cfg.PersistDebounce,
		AnimationDuration:    cfg.AnimationDuration,
		RolloverSchedule:     cfg.RolloverSchedule,
		CacheCleanupInterval: cfg.CacheTTL,
	}
	if cfg.RolloverDisabled() {
		opts.RolloverSchedule = ""
	}
	return opts
}

// Summary is a point-in-time view of the whole day.
type Summary struct {
	daily.Snapshot
	Ratio    float64
	Band     progress.Band
	Servings map[core.Category]map[string]int
}

// openLedger is a ledger shared by the views of one category.
type openLedger struct {
	ledger *ledger.Ledger
	views  int
}

type Tracker struct {
	opts      Options
	clock     clock.Clock
	logger    *log.Logger
	store     kv.Store
	catalogs  map[core.Category]core.Catalog
	aggregate *daily.Aggregate
	cron      *cron.Cron
	caches    *cache.Manager

	mu          sync.Mutex
	day         core.Day
	started     bool
	stopped     bool
	unsubscribe func()

	// ledgersMu is never held while the aggregate delivers snapshots.
	ledgersMu sync.Mutex
	ledgers   map[core.Category]*openLedger
	closed    bool
}

func New(store kv.Store, opts Options) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.AnimationDuration == 0 {
		opts.AnimationDuration = progress.DefaultDuration
	}
	catalogs := opts.Catalogs
	if catalogs == nil {
		catalogs = core.DefaultCatalogs()
	}

	aggregate := daily.New(store, daily.Options{
		Goals:  opts.Goals,
		Delay:  opts.PersistDebounce,
		Clock:  opts.Clock,
		Logger: opts.Logger,
	})

	for _, category := range core.Categories() {
		catalog, ok := catalogs[category]
		if !ok {
			continue
		}
		if catalog.Category != category {
			return nil, fmt.Errorf("catalog for %s is labelled %q", category, catalog.Category)
		}
		if err := catalog.Validate(); err != nil {
			return nil, fmt.Errorf("validate %s catalog: %w", category, err)
		}
		aggregate.RegisterServingsKeys(kv.ServingsKey(category.String()))
	}

	t := &Tracker{
		opts:      opts,
		clock:     opts.Clock,
		logger:    opts.Logger.WithComponent(log.ComponentTracker),
		store:     store,
		catalogs:  catalogs,
		aggregate: aggregate,
		ledgers:   make(map[core.Category]*openLedger),
		cron:      cron.New(cron.WithLocation(time.Local)),
		caches:    cache.NewManager(opts.CacheCleanupInterval),
	}
	if opts.Cache != nil {
		t.caches.Register(opts.Cache)
	}
	return t, nil
}

// Start loads the aggregate and starts the background jobs. Ledgers are
// loaded when their screen opens.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return errors.New("tracker already started")
	}
	t.started = true
	t.mu.Unlock()

	if t.opts.RolloverSchedule != "" {
		_, err := t.cron.AddFunc(t.opts.RolloverSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), rolloverTimeout)
			defer cancel()
			t.Rollover(ctx)
		})
		if err != nil {
			return fmt.Errorf("schedule rollover %q: %w", t.opts.RolloverSchedule, err)
		}
	}

	unsubscribe := t.aggregate.Subscribe(t.onSnapshot)
	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()

	t.aggregate.Load(ctx)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load daily totals: %w", err)
	}

	t.cron.Start()
	if t.opts.Cache != nil {
		t.caches.Start()
	}

	snap := t.aggregate.Snapshot()
	t.logger.InfoContext(ctx, "Tracker started",
		log.FieldOperation, log.OpStartup,
		log.FieldDay, snap.Day.String(),
		log.FieldDaily, snap.TotalCalories,
		log.FieldWater, snap.WaterGlasses)
	return nil
}

// onSnapshot resets the open ledgers when the aggregate moves to a new day.
func (t *Tracker) onSnapshot(s daily.Snapshot) {
	if !s.Loaded {
		return
	}
	t.mu.Lock()
	previous := t.day
	t.day = s.Day
	t.mu.Unlock()

	if previous.IsZero() || previous == s.Day {
		return
	}
	for _, l := range t.openLedgers() {
		l.Reset()
	}
}

func (t *Tracker) openLedgers() map[core.Category]*ledger.Ledger {
	t.ledgersMu.Lock()
	defer t.ledgersMu.Unlock()
	out := make(map[core.Category]*ledger.Ledger, len(t.ledgers))
	for category, open := range t.ledgers {
		out[category] = open.ledger
	}
	return out
}

// Rollover checks for a new day now instead of waiting for the scheduled job.
func (t *Tracker) Rollover(ctx context.Context) bool {
	rolled := t.aggregate.Rollover(ctx)
	if rolled {
		t.logger.InfoContext(ctx, "Rolled over to a new day",
			log.FieldOperation, log.OpRollover, log.FieldDay, t.aggregate.Snapshot().Day.String())
	}
	return rolled
}

func (t *Tracker) Aggregate() *daily.Aggregate { return t.aggregate }

// Ledger returns the ledger of an open category screen, or nil.
func (t *Tracker) Ledger(category core.Category) *ledger.Ledger {
	return t.openLedgers()[category]
}

// Meal opens a view for one category screen. The category's ledger is created
// and loaded by the first view and flushed and dropped when the last view
// closes, so every view must be closed.
func (t *Tracker) Meal(ctx context.Context, category core.Category) (*MealView, error) {
	catalog, ok := t.catalogs[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	t.ledgersMu.Lock()
	if t.closed {
		t.ledgersMu.Unlock()
		return nil, errors.New("tracker stopped")
	}
	if open, ok := t.ledgers[category]; ok {
		open.views++
		t.ledgersMu.Unlock()
		return t.newView(open.ledger), nil
	}
	l, err := ledger.New(catalog, t.store, ledger.Options{
		Delay:    t.opts.PersistDebounce,
		Reporter: t.aggregate,
		Logger:   t.opts.Logger,
	})
	if err != nil {
		t.ledgersMu.Unlock()
		return nil, fmt.Errorf("create %s ledger: %w", category, err)
	}
	t.ledgers[category] = &openLedger{ledger: l, views: 1}
	t.ledgersMu.Unlock()

	// Loading reports the category total, which notifies subscribers.
	l.Load(ctx)
	t.logger.DebugContext(ctx, "Meal screen opened", log.FieldCategory, category.String())
	return t.newView(l), nil
}

func (t *Tracker) newView(l *ledger.Ledger) *MealView {
	presenter := progress.NewPresenter(t.opts.AnimationDuration, t.clock)
	return newMealView(l, t.aggregate, presenter, func() { t.release(l) })
}

// release drops one view of l and closes the ledger with the last one.
func (t *Tracker) release(l *ledger.Ledger) {
	t.ledgersMu.Lock()
	defer t.ledgersMu.Unlock()

	open, ok := t.ledgers[l.Category()]
	if !ok || open.ledger != l {
		return
	}
	open.views--
	if open.views > 0 {
		return
	}
	delete(t.ledgers, l.Category())

	// Flushed under the lock so a screen reopened right away reads this write.
	ctx, cancel := context.WithTimeout(context.Background(), persist.WriteTimeout)
	defer cancel()
	l.Flush(ctx)
	l.Close()
	t.logger.DebugContext(ctx, "Meal screen closed", log.FieldCategory, l.Category().String())
}

// Summary reports the current totals of the day. Servings of open screens
// come from memory, the others are read from storage concurrently.
func (t *Tracker) Summary(ctx context.Context) (Summary, error) {
	snap := t.aggregate.Snapshot()
	open := t.openLedgers()

	var mu sync.Mutex
	servings := make(map[core.Category]map[string]int, len(t.catalogs))
	g, gctx := errgroup.WithContext(ctx)
	for category, catalog := range t.catalogs {
		category, catalog := category, catalog
		g.Go(func() error {
			var counts map[string]int
			if l, ok := open[category]; ok {
				counts = l.Servings()
			} else {
				counts = ledger.ReadStored(gctx, catalog, t.store, t.logger)
			}
			mu.Lock()
			servings[category] = counts
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("read servings: %w", err)
	}

	ratio := progress.Ratio(snap.TotalCalories, snap.CalorieGoal)
	return Summary{
		Snapshot: snap,
		Ratio:    ratio,
		Band:     progress.BandFor(ratio),
		Servings: servings,
	}, nil
}

// Stop halts the background jobs and writes pending changes. It is safe to
// call more than once.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	unsubscribe := t.unsubscribe
	t.mu.Unlock()

	var errs []error
	select {
	case <-t.cron.Stop().Done():
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("wait for rollover job: %w", ctx.Err()))
	}
	t.caches.Stop()

	t.ledgersMu.Lock()
	t.closed = true
	open := t.ledgers
	t.ledgers = make(map[core.Category]*openLedger)
	t.ledgersMu.Unlock()

	for _, o := range open {
		o.ledger.Flush(ctx)
		o.ledger.Close()
	}
	t.aggregate.Flush(ctx)
	t.aggregate.Close()
	if unsubscribe != nil {
		unsubscribe()
	}

	t.logger.InfoContext(ctx, "Tracker stopped", log.FieldOperation, log.OpShutdown)
	return errors.Join(errs...)
}
