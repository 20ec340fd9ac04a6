package core

// DefaultCatalogs returns the built-in item lists for every category.
func DefaultCatalogs() map[Category]Catalog {
	return map[Category]Catalog{
		Breakfast: {Category: Breakfast, Items: []CatalogItem{
			{ID: "1", Name: "TOAST", CaloriesPerServing: 80},
			{ID: "2", Name: "PORK", CaloriesPerServing: 240},
			{ID: "3", Name: "CHICKEN", CaloriesPerServing: 200},
			{ID: "4", Name: "OMELETTE", CaloriesPerServing: 150},
			{ID: "5", Name: "BEEF", CaloriesPerServing: 250},
			{ID: "6", Name: "FISH", CaloriesPerServing: 180},
			{ID: "7", Name: "BACON", CaloriesPerServing: 190},
			{ID: "8", Name: "ORANGE", CaloriesPerServing: 60},
		}},
		Lunch: {Category: Lunch, Items: []CatalogItem{
			{ID: "1", Name: "GRILLED CHICKEN", CaloriesPerServing: 280},
			{ID: "2", Name: "PASTA", CaloriesPerServing: 350},
			{ID: "3", Name: "SALAD", CaloriesPerServing: 150},
			{ID: "4", Name: "RICE", CaloriesPerServing: 200},
			{ID: "5", Name: "BEEF STEAK", CaloriesPerServing: 400},
			{ID: "6", Name: "FISH CURRY", CaloriesPerServing: 300},
			{ID: "7", Name: "SOUP", CaloriesPerServing: 120},
			{ID: "8", Name: "BREAD ROLL", CaloriesPerServing: 90},
		}},
		Snacks: {Category: Snacks, Items: []CatalogItem{
			{ID: "1", Name: "CHIPS", CaloriesPerServing: 150},
			{ID: "2", Name: "NUTS", CaloriesPerServing: 180},
			{ID: "3", Name: "POPCORN", CaloriesPerServing: 100},
			{ID: "4", Name: "GRANOLA BAR", CaloriesPerServing: 120},
			{ID: "5", Name: "CHOCOLATE", CaloriesPerServing: 200},
			{ID: "6", Name: "FRUIT SALAD", CaloriesPerServing: 90},
			{ID: "7", Name: "YOGURT", CaloriesPerServing: 110},
			{ID: "8", Name: "COOKIES", CaloriesPerServing: 160},
		}},
		Dinner: {Category: Dinner, Items: []CatalogItem{
			{ID: "1", Name: "ROAST CHICKEN", CaloriesPerServing: 320},
			{ID: "2", Name: "MASHED POTATOES", CaloriesPerServing: 210},
			{ID: "3", Name: "STEAMED VEGGIES", CaloriesPerServing: 90},
			{ID: "4", Name: "PASTA", CaloriesPerServing: 350},
			{ID: "5", Name: "GRILLED SALMON", CaloriesPerServing: 310},
			{ID: "6", Name: "BEEF STEW", CaloriesPerServing: 400},
			{ID: "7", Name: "GARLIC BREAD", CaloriesPerServing: 150},
			{ID: "8", Name: "MIXED SALAD", CaloriesPerServing: 120},
		}},
	}
}
