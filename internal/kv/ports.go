package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Store is the durable key-value port shared by every nutrition component.
// Values are opaque strings (JSON blobs in practice).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Persisted keys.
const (
	KeyMealCalories = "@mealCalories"
	KeyResetDate    = "@mealCaloriesDate"
	KeyWaterGlasses = "@waterGlasses"

	servingsPrefix = "@servings:"
)

// ServingsKey returns the key holding the servings map of a category.
func ServingsKey(category string) string {
	return servingsPrefix + category
}
