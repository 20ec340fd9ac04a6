package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"nutrilog/internal/cli"
	"nutrilog/internal/log"
	"nutrilog/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", log.FieldError, err)
		}
	}()

	opts := tracker.OptionsFromConfig(cfg)
	opts.Logger = logger
	opts.Cache = store.Cache
	t, err := tracker.New(store.Store, opts)
	if err != nil {
		logger.Error("Failed to create tracker", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting nutrilog", log.FieldBackend, cfg.DataBackend,
		"calorie_goal", cfg.CalorieGoal, "water_goal", cfg.WaterGoal)
	if err := run(ctx, t, logger, cfg.SummaryInterval); err != nil {
		logger.Error("Nutrilog stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Nutrilog stopped gracefully")
}

func run(ctx context.Context, t *tracker.Tracker, logger *log.Logger, summaryEvery time.Duration) error {
	if err := t.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if summaryEvery > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(summaryEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					logSummary(gctx, logger, t)
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logSummary(shutdownCtx, logger, t)
		return t.Stop(shutdownCtx)
	})
	return g.Wait()
}

func logSummary(ctx context.Context, logger *log.Logger, t *tracker.Tracker) {
	s, err := t.Summary(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Failed to build daily summary", log.FieldError, err)
		}
		return
	}
	servings := 0
	for _, counts := range s.Servings {
		for _, n := range counts {
			servings += n
		}
	}
	logger.Info("Daily summary",
		log.FieldDay, s.Day.String(),
		log.FieldDaily, s.TotalCalories,
		"calorie_goal", s.CalorieGoal,
		"band", s.Band.String(),
		log.FieldWater, s.WaterGlasses,
		"water_goal", s.WaterGoal,
		"breakfast", s.MealCalories.Breakfast,
		"lunch", s.MealCalories.Lunch,
		"snacks", s.MealCalories.Snacks,
		"dinner", s.MealCalories.Dinner,
		log.FieldServings, servings)
}
