package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Breakfast Category = "breakfast"
	Lunch     Category = "lunch"
	Snacks    Category = "snacks"
	Dinner    Category = "dinner"
)

type (
	// Category is a meal grouping with its own catalog and serving counts.
	Category string

	CatalogItem struct {
		ID                 string
		Name               string
		CaloriesPerServing int
	}

	// Catalog is the fixed item list of one category.
	Catalog struct {
		Category Category
		Items    []CatalogItem
	}

	// MealCalories holds the authoritative daily total per category.
	MealCalories struct {
		Breakfast int `json:"breakfast"`
		Lunch     int `json:"lunch"`
		Snacks    int `json:"snacks"`
		Dinner    int `json:"dinner"`
	}
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrEmptyItemName    = errors.New("empty item name")
	ErrDuplicateItem    = errors.New("duplicate item name")
	ErrNegativeCalories = errors.New("negative calories per serving")
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Breakfast, Lunch, Snacks, Dinner}
}

func (c Category) IsValid() bool {
	switch c {
	case Breakfast, Lunch, Snacks, Dinner:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

func (item CatalogItem) Validate() error {
	if strings.TrimSpace(item.Name) == "" {
		return ErrEmptyItemName
	}
	if item.CaloriesPerServing < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeCalories, item.Name)
	}
	return nil
}

func (c Catalog) Validate() error {
	if !c.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c.Category)
	}
	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			return err
		}
		if _, ok := seen[item.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, item.Name)
		}
		seen[item.Name] = struct{}{}
	}
	return nil
}

// Item looks up a catalog entry by name.
func (c Catalog) Item(name string) (CatalogItem, bool) {
	for _, item := range c.Items {
		if item.Name == name {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// Get returns the total recorded for a category.
func (m MealCalories) Get(c Category) int {
	switch c {
	case Breakfast:
		return m.Breakfast
	case Lunch:
		return m.Lunch
	case Snacks:
		return m.Snacks
	case Dinner:
		return m.Dinner
	default:
		return 0
	}
}

// With returns a copy of m with the category total replaced.
func (m MealCalories) With(c Category, total int) MealCalories {
	switch c {
	case Breakfast:
		m.Breakfast = total
	case Lunch:
		m.Lunch = total
	case Snacks:
		m.Snacks = total
	case Dinner:
		m.Dinner = total
	}
	return m
}

// Total is the cross-category daily total.
func (m MealCalories) Total() int {
	return m.Breakfast + m.Lunch + m.Snacks + m.Dinner
}

// Clamp replaces negative entries with zero. Stored blobs are not trusted.
func (m MealCalories) Clamp() MealCalories {
	for _, c := range Categories() {
		if m.Get(c) < 0 {
			m = m.With(c, 0)
		}
	}
	return m
}
