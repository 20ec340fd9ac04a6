package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrilog/internal/cache"
	"nutrilog/internal/clock"
	"nutrilog/internal/config"
	"nutrilog/internal/core"
	"nutrilog/internal/kv"
	"nutrilog/internal/kv/cached"
	"nutrilog/internal/kv/memory"
	"nutrilog/internal/ledger"
	"nutrilog/internal/log"
	"nutrilog/internal/progress"
)

func morning() time.Time {
	return time.Date(2024, time.January, 2, 8, 0, 0, 0, time.Local)
}

func testOptions(clk clock.Clock) Options {
	return Options{
		PersistDebounce:   time.Hour,
		AnimationDuration: 500 * time.Millisecond,
		Clock:             clk,
		Logger:            log.Discard(),
	}
}

func startTracker(t *testing.T, store kv.Store, opts Options) *Tracker {
	t.Helper()
	tr, err := New(store, opts)
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	t.Cleanup(func() { _ = tr.Stop(context.Background()) })
	return tr
}

func openMeal(t *testing.T, tr *Tracker, category core.Category) *MealView {
	t.Helper()
	view, err := tr.Meal(context.Background(), category)
	require.NoError(t, err)
	t.Cleanup(view.Close)
	return view
}

func summarize(t *testing.T, tr *Tracker) Summary {
	t.Helper()
	s, err := tr.Summary(context.Background())
	require.NoError(t, err)
	return s
}

// countingStore counts backing reads per key.
type countingStore struct {
	*memory.Store
	mu   sync.Mutex
	gets map[string]int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	c.gets[key]++
	c.mu.Unlock()
	return c.Store.Get(ctx, key)
}

func (c *countingStore) reads(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets[key]
}

func TestBreakfastScenario(t *testing.T) {
	clk := clock.NewManual(morning())
	tr := startTracker(t, memory.New(), testOptions(clk))
	view := openMeal(t, tr, core.Breakfast)

	view.UpdateServings("TOAST", ledger.Increment)
	view.UpdateServings("TOAST", ledger.Increment)
	view.UpdateServings("BACON", ledger.Increment)

	assert.Equal(t, 350, view.CategoryTotal())
	assert.Equal(t, 350, view.DailyTotal())
	assert.Equal(t, 2150, view.CalorieGoal())
	assert.Equal(t, 160, view.ItemTotal(core.CatalogItem{Name: "TOAST", CaloriesPerServing: 80}))
	assert.True(t, view.Loaded())

	clk.Advance(time.Second)
	frame := view.Frame()
	assert.False(t, frame.Animating)
	assert.Equal(t, 350, frame.CategoryTotal)
	assert.Equal(t, 350, frame.DailyTotal)
	assert.Equal(t, progress.Under, frame.Band)
	assert.InDelta(t, 350.0/2150.0, frame.Fill, 1e-9)
}

func TestCategoriesAddUp(t *testing.T) {
	tr := startTracker(t, memory.New(), testOptions(clock.NewManual(morning())))

	lunch := openMeal(t, tr, core.Lunch)
	lunch.UpdateServings("PASTA", ledger.Increment)
	lunch.Close()
	openMeal(t, tr, core.Dinner).UpdateServings("BEEF STEW", ledger.Increment)
	tr.Aggregate().UpdateWaterGlasses(3)

	summary := summarize(t, tr)
	assert.Equal(t, core.MealCalories{Lunch: 350, Dinner: 400}, summary.MealCalories)
	assert.Equal(t, 750, summary.TotalCalories)
	assert.Equal(t, 3, summary.WaterGlasses)
	assert.Equal(t, 1, summary.Servings[core.Lunch]["PASTA"], "closed screens are read from storage")
	assert.Equal(t, 1, summary.Servings[core.Dinner]["BEEF STEW"])
	assert.Len(t, summary.Servings, len(core.Categories()))
	assert.Equal(t, progress.Under, summary.Band)
}

func TestLedgerLivesWhileAViewIsOpen(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tr := startTracker(t, store, testOptions(clock.NewManual(morning())))
	assert.Nil(t, tr.Ledger(core.Snacks))

	first := openMeal(t, tr, core.Snacks)
	second := openMeal(t, tr, core.Snacks)
	first.UpdateServings("NUTS", ledger.Increment)
	assert.Equal(t, 1, second.Servings()["NUTS"], "views of one category share a ledger")

	first.Close()
	require.NotNil(t, tr.Ledger(core.Snacks))
	assert.True(t, tr.Ledger(core.Snacks).Pending())

	second.Close()
	assert.Nil(t, tr.Ledger(core.Snacks))
	raw, err := store.Get(ctx, kv.ServingsKey("snacks"))
	require.NoError(t, err)
	assert.Contains(t, raw, `"NUTS":1`)

	reopened := openMeal(t, tr, core.Snacks)
	assert.Equal(t, 1, reopened.Servings()["NUTS"])
	assert.Equal(t, 180, tr.Aggregate().MealCalories().Snacks)
}

func TestReopenedScreenReadsThroughCache(t *testing.T) {
	backing := &countingStore{Store: memory.New(), gets: make(map[string]int)}
	lru := cache.NewLRUCache[string](16, time.Minute)
	tr := startTracker(t, cached.New(backing, lru), testOptions(clock.NewManual(morning())))
	key := kv.ServingsKey("breakfast")

	view := openMeal(t, tr, core.Breakfast)
	view.UpdateServings("OMELETTE", ledger.Increment)
	view.Close()
	require.Equal(t, 1, backing.reads(key))

	for i := 0; i < 3; i++ {
		reopened := openMeal(t, tr, core.Breakfast)
		assert.Equal(t, 1, reopened.Servings()["OMELETTE"])
		reopened.Close()
	}
	summary := summarize(t, tr)
	assert.Equal(t, 1, summary.Servings[core.Breakfast]["OMELETTE"])
	assert.Equal(t, 1, backing.reads(key), "later reads are served by the cache")
}

func TestStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clk := clock.NewManual(morning())

	first, err := New(store, testOptions(clk))
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	snacks, err := first.Meal(ctx, core.Snacks)
	require.NoError(t, err)
	snacks.UpdateServings("NUTS", ledger.Increment)
	snacks.UpdateServings("NUTS", ledger.Increment)
	first.Aggregate().UpdateWaterGlasses(2)
	require.NoError(t, first.Stop(ctx))
	snacks.Close()

	second := startTracker(t, store, testOptions(clk))

	assert.Equal(t, 360, summarize(t, second).TotalCalories)
	assert.Equal(t, 2, summarize(t, second).WaterGlasses)
	assert.Equal(t, 2, openMeal(t, second, core.Snacks).Servings()["NUTS"])
}

func TestNewDayAtStartupClearsEverything(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithValues(map[string]string{
		kv.KeyResetDate:             "Mon Jan 01 2024",
		kv.KeyMealCalories:          `{"breakfast":350,"lunch":0,"snacks":0,"dinner":0}`,
		kv.KeyWaterGlasses:          "6",
		kv.ServingsKey("breakfast"): `{"TOAST":2,"BACON":1}`,
	})

	tr := startTracker(t, store, testOptions(clock.NewManual(morning())))

	assert.Zero(t, openMeal(t, tr, core.Breakfast).CategoryTotal())
	assert.Zero(t, summarize(t, tr).TotalCalories)
	assert.Zero(t, summarize(t, tr).WaterGlasses)

	date, err := store.Get(ctx, kv.KeyResetDate)
	require.NoError(t, err)
	assert.Equal(t, "Tue Jan 02 2024", date)
}

func TestRolloverResetsOpenLedgers(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, time.January, 1, 23, 30, 0, 0, time.Local))
	tr := startTracker(t, memory.New(), testOptions(clk))
	view := openMeal(t, tr, core.Dinner)

	view.UpdateServings("GRILLED SALMON", ledger.Increment)
	tr.Aggregate().UpdateWaterGlasses(4)
	require.Equal(t, 310, summarize(t, tr).TotalCalories)

	assert.False(t, tr.Rollover(ctx), "still the same day")

	clk.Advance(time.Hour)
	require.True(t, tr.Rollover(ctx))

	summary := summarize(t, tr)
	assert.Zero(t, view.CategoryTotal())
	assert.Zero(t, summary.TotalCalories)
	assert.Zero(t, summary.WaterGlasses)
	assert.Equal(t, core.Day("Tue Jan 02 2024"), summary.Day)

	// the new day keeps counting normally
	view.UpdateServings("PASTA", ledger.Increment)
	assert.Equal(t, 350, summarize(t, tr).TotalCalories)
}

func TestMealRejectsUnknownCategory(t *testing.T) {
	tr := startTracker(t, memory.New(), testOptions(clock.NewManual(morning())))

	_, err := tr.Meal(context.Background(), core.Category("brunch"))
	require.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestMealAfterStopFails(t *testing.T) {
	ctx := context.Background()
	tr, err := New(memory.New(), testOptions(clock.NewManual(morning())))
	require.NoError(t, err)
	require.NoError(t, tr.Start(ctx))
	require.NoError(t, tr.Stop(ctx))

	_, err = tr.Meal(ctx, core.Lunch)
	require.Error(t, err)
}

func TestStartValidatesSchedule(t *testing.T) {
	opts := testOptions(clock.NewManual(morning()))
	opts.RolloverSchedule = "whenever"
	tr, err := New(memory.New(), opts)
	require.NoError(t, err)

	require.Error(t, tr.Start(context.Background()))
	require.NoError(t, tr.Stop(context.Background()))
}

func TestOptionsFromConfigDisablesRollover(t *testing.T) {
	cfg := &config.Config{RolloverSchedule: "off", CalorieGoal: 2000, WaterGoal: 6}
	opts := OptionsFromConfig(cfg)
	assert.Empty(t, opts.RolloverSchedule)
	assert.Equal(t, 2000, opts.Goals.Calories)

	opts.Clock = clock.NewManual(morning())
	opts.Logger = log.Discard()
	tr := startTracker(t, memory.New(), opts)
	assert.True(t, tr.Aggregate().Loaded())

	cfg.RolloverSchedule = "0 0 * * *"
	assert.Equal(t, "0 0 * * *", OptionsFromConfig(cfg).RolloverSchedule)
}

func TestStartTwiceFails(t *testing.T) {
	opts := testOptions(clock.NewManual(morning()))
	opts.RolloverSchedule = "0 0 * * *"
	tr := startTracker(t, memory.New(), opts)

	assert.Error(t, tr.Start(context.Background()))
}

func TestStopFlushesPendingWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	lru := cache.NewLRUCache[string](4, time.Minute)
	opts := testOptions(clock.NewManual(morning()))
	opts.Cache = lru
	opts.CacheCleanupInterval = time.Minute

	tr, err := New(store, opts)
	require.NoError(t, err)
	require.NoError(t, tr.Start(ctx))

	view, err := tr.Meal(ctx, core.Breakfast)
	require.NoError(t, err)
	view.UpdateServings("OMELETTE", ledger.Increment)
	require.True(t, tr.Ledger(core.Breakfast).Pending())

	require.NoError(t, tr.Stop(ctx))
	require.NoError(t, tr.Stop(ctx))
	view.Close()

	raw, err := store.Get(ctx, kv.ServingsKey("breakfast"))
	require.NoError(t, err)
	assert.Contains(t, raw, `"OMELETTE":1`)
	assert.Contains(t, store.Snapshot()[kv.KeyMealCalories], `"breakfast":150`)
}

func TestNewRejectsMislabelledCatalog(t *testing.T) {
	opts := testOptions(clock.NewManual(morning()))
	catalogs := core.DefaultCatalogs()
	catalogs[core.Lunch] = catalogs[core.Dinner]
	opts.Catalogs = catalogs

	_, err := New(memory.New(), opts)
	require.Error(t, err)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
}
