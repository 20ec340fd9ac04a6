// Package daily holds the process-wide aggregate of today's calories per meal
// category and water glasses, together with the new-day reset rule.
package daily

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"nutrilog/internal/clock"
	"nutrilog/internal/core"
	"nutrilog/internal/kv"
	"nutrilog/internal/log"
	"nutrilog/internal/persist"
)

const (
	DefaultCalorieGoal = 2150
	DefaultWaterGoal   = 8
)

type Goals struct {
	Calories int
	Water    int
}

func DefaultGoals() Goals {
	return Goals{Calories: DefaultCalorieGoal, Water: DefaultWaterGoal}
}

// Snapshot is the state handed to subscribers. Consumers must not trust the
// numbers while Loaded is false.
type Snapshot struct {
	Day           core.Day
	MealCalories  core.MealCalories
	TotalCalories int
	CalorieGoal   int
	WaterGlasses  int
	WaterGoal     int
	Loaded        bool
}

type Listener func(Snapshot)

type Options struct {
	Goals Goals
	// Delay is the debounce window for writes. Zero means persist.DefaultDelay.
	Delay  time.Duration
	Clock  clock.Clock
	Logger *log.Logger
}

type subscription struct {
	id uint64
	fn Listener
}

// Aggregate is the single writer of the daily totals. Construct exactly one per
// process and pass it to every consumer.
type Aggregate struct {
	store  kv.Store
	clock  clock.Clock
	goals  Goals
	logger *log.Logger
	writer *persist.Debouncer

	mu           sync.Mutex
	day          core.Day
	meals        core.MealCalories
	water        int
	loaded       bool
	dirty        map[core.Category]bool
	waterDelta   int
	servingsKeys []string

	subsMu     sync.Mutex
	subs       []subscription
	nextID     uint64
	queue      []Snapshot
	delivering bool
}

func New(store kv.Store, opts Options) *Aggregate {
	goals := opts.Goals
	if goals.Calories <= 0 {
		goals.Calories = DefaultCalorieGoal
	}
	if goals.Water <= 0 {
		goals.Water = DefaultWaterGoal
	}
	delay := opts.Delay
	if delay == 0 {
		delay = persist.DefaultDelay
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	return &Aggregate{
		store:  store,
		clock:  clk,
		goals:  goals,
		logger: logger.WithComponent(log.ComponentDaily),
		writer: persist.NewDebouncer(delay),
		dirty:  make(map[core.Category]bool),
	}
}

// RegisterServingsKeys adds ledger keys that are cleared when a new day starts.
func (a *Aggregate) RegisterServingsKeys(keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servingsKeys = append(a.servingsKeys, keys...)
}

// Load runs the startup sequence. When the stored date is not today every
// number is zeroed and today's date is written immediately; otherwise the
// stored totals are adopted. Updates that arrived before Load are kept.
func (a *Aggregate) Load(ctx context.Context) {
	today := core.DayOf(a.clock.Now())
	storedDay, _ := persist.LoadString(ctx, a.store, kv.KeyResetDate, a.logger)

	var meals core.MealCalories
	water := 0
	newDay := core.Day(storedDay) != today
	if newDay {
		a.logger.InfoContext(ctx, "New day, resetting daily totals",
			log.FieldOperation, log.OpReset,
			log.FieldStoredDay, storedDay, log.FieldDay, today.String())
	} else {
		persist.LoadJSON(ctx, a.store, kv.KeyMealCalories, &meals, a.logger)
		meals = meals.Clamp()
		if n, ok := persist.LoadInt(ctx, a.store, kv.KeyWaterGlasses, a.logger); ok && n > 0 {
			water = n
		}
	}

	a.mu.Lock()
	for cat := range a.dirty {
		meals = meals.With(cat, a.meals.Get(cat))
	}
	water = max(0, water+a.waterDelta)
	changedBeforeLoad := len(a.dirty) > 0 || a.waterDelta != 0
	a.meals = meals
	a.water = water
	a.day = today
	a.loaded = true
	a.dirty = make(map[core.Category]bool)
	a.waterDelta = 0
	keys := append([]string(nil), a.servingsKeys...)
	snap := a.snapshotLocked()
	a.enqueueLocked(snap)
	a.mu.Unlock()

	if newDay {
		a.writeState(ctx, snap)
		a.clearServings(ctx, keys)
	} else if changedBeforeLoad {
		a.writer.Schedule(a.save)
	}

	a.logger.InfoContext(ctx, "Daily totals loaded",
		log.FieldOperation, log.OpLoad, log.FieldDay, today.String(),
		log.FieldDaily, snap.TotalCalories, log.FieldWater, snap.WaterGlasses)
	a.deliver()
}

// Rollover applies the new-day rule while the process is running. It is a
// no-op before Load and when the day has not changed.
func (a *Aggregate) Rollover(ctx context.Context) bool {
	today := core.DayOf(a.clock.Now())

	a.mu.Lock()
	if !a.loaded || a.day == today {
		a.mu.Unlock()
		return false
	}
	previous := a.day
	a.day = today
	a.meals = core.MealCalories{}
	a.water = 0
	keys := append([]string(nil), a.servingsKeys...)
	snap := a.snapshotLocked()
	a.enqueueLocked(snap)
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "Day changed, resetting daily totals",
		log.FieldOperation, log.OpReset,
		log.FieldStoredDay, previous.String(), log.FieldDay, today.String())
	a.writeState(ctx, snap)
	a.clearServings(ctx, keys)
	a.deliver()
	return true
}

// UpdateMealCalories replaces one category's total. Equal totals are ignored
// so that ledgers recomputing the same value cause no write or notification.
func (a *Aggregate) UpdateMealCalories(category core.Category, total int) bool {
	if !category.IsValid() {
		a.logger.Warn("Ignoring total for unknown category", log.FieldCategory, category.String())
		return false
	}
	total = max(0, total)

	a.mu.Lock()
	if a.meals.Get(category) == total {
		a.mu.Unlock()
		return false
	}
	a.meals = a.meals.With(category, total)
	loaded := a.loaded
	if !loaded {
		a.dirty[category] = true
	}
	snap := a.snapshotLocked()
	a.enqueueLocked(snap)
	a.mu.Unlock()

	if loaded {
		a.writer.Schedule(a.save)
	}
	a.deliver()
	return true
}

// UpdateWaterGlasses adds delta to the water count, never going below zero.
func (a *Aggregate) UpdateWaterGlasses(delta int) bool {
	a.mu.Lock()
	next := max(0, a.water+delta)
	if next == a.water {
		a.mu.Unlock()
		return false
	}
	loaded := a.loaded
	if !loaded {
		a.waterDelta += next - a.water
	}
	a.water = next
	snap := a.snapshotLocked()
	a.enqueueLocked(snap)
	a.mu.Unlock()

	if loaded {
		a.writer.Schedule(a.save)
	}
	a.deliver()
	return true
}

// Subscribe registers fn for every accepted change and returns a function
// that removes it.
func (a *Aggregate) Subscribe(fn Listener) func() {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	a.nextID++
	id := a.nextID
	a.subs = append(a.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subsMu.Lock()
			defer a.subsMu.Unlock()
			for i, s := range a.subs {
				if s.id == id {
					a.subs = append(a.subs[:i:i], a.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueueLocked queues snap for delivery. Called with a.mu held so the queue
// order matches the order of state changes.
func (a *Aggregate) enqueueLocked(snap Snapshot) {
	a.subsMu.Lock()
	a.queue = append(a.queue, snap)
	a.subsMu.Unlock()
}

// deliver drains the queue in order. A listener that mutates the aggregate
// queues its snapshot behind the one being delivered instead of recursing.
func (a *Aggregate) deliver() {
	a.subsMu.Lock()
	if a.delivering || len(a.queue) == 0 {
		a.subsMu.Unlock()
		return
	}
	a.delivering = true
	for len(a.queue) > 0 {
		next := a.queue[0]
		a.queue = a.queue[1:]
		listeners := make([]Listener, len(a.subs))
		for i, s := range a.subs {
			listeners[i] = s.fn
		}
		a.subsMu.Unlock()
		for _, fn := range listeners {
			fn(next)
		}
		a.subsMu.Lock()
	}
	a.delivering = false
	a.subsMu.Unlock()
}

func (a *Aggregate) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregate) snapshotLocked() Snapshot {
	return Snapshot{
		Day:           a.day,
		MealCalories:  a.meals,
		TotalCalories: a.meals.Total(),
		CalorieGoal:   a.goals.Calories,
		WaterGlasses:  a.water,
		WaterGoal:     a.goals.Water,
		Loaded:        a.loaded,
	}
}

func (a *Aggregate) Goals() Goals { return a.goals }

func (a *Aggregate) MealCalories() core.MealCalories {
	return a.Snapshot().MealCalories
}

func (a *Aggregate) TotalCalories() int {
	return a.Snapshot().TotalCalories
}

func (a *Aggregate) WaterGlasses() int {
	return a.Snapshot().WaterGlasses
}

func (a *Aggregate) Loaded() bool {
	return a.Snapshot().Loaded
}

func (a *Aggregate) Pending() bool {
	return a.writer.Pending()
}

// Flush writes pending changes now.
func (a *Aggregate) Flush(ctx context.Context) {
	if a.writer.Flush(ctx) {
		a.logger.DebugContext(ctx, "Pending daily totals flushed", log.FieldOperation, log.OpFlush)
	}
}

// Close drops any pending write.
func (a *Aggregate) Close() {
	if a.writer.Stop() {
		a.logger.Warn("Aggregate closed with an unsaved change")
	}
}

func (a *Aggregate) save(ctx context.Context) {
	a.writeState(ctx, a.Snapshot())
}

func (a *Aggregate) writeState(ctx context.Context, snap Snapshot) {
	var errs []error
	if err := persist.SaveJSON(ctx, a.store, kv.KeyMealCalories, snap.MealCalories); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Set(ctx, kv.KeyResetDate, snap.Day.String()); err != nil {
		errs = append(errs, fmt.Errorf("save %s: %w", kv.KeyResetDate, err))
	}
	if err := a.store.Set(ctx, kv.KeyWaterGlasses, strconv.Itoa(snap.WaterGlasses)); err != nil {
		errs = append(errs, fmt.Errorf("save %s: %w", kv.KeyWaterGlasses, err))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist daily totals", log.FieldError, err)
		return
	}
	a.logger.DebugContext(ctx, "Daily totals persisted",
		log.FieldOperation, log.OpSave, log.FieldDay, snap.Day.String(), log.FieldDaily, snap.TotalCalories)
}

func (a *Aggregate) clearServings(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := a.store.Delete(ctx, key); err != nil {
			a.logger.ErrorContext(ctx, "Failed to clear servings", log.FieldKey, key, log.FieldError, err)
		}
	}
}
