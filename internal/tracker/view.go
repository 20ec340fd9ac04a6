package tracker

import (
	"sync"

	"nutrilog/internal/core"
	"nutrilog/internal/daily"
	"nutrilog/internal/ledger"
	"nutrilog/internal/progress"
)

// MealView is what one category screen works with: the category's ledger,
// the shared daily numbers and its own progress animation.
type MealView struct {
	ledger    *ledger.Ledger
	aggregate *daily.Aggregate
	presenter *progress.Presenter

	closeOnce   sync.Once
	unsubscribe func()
	release     func()
}

func newMealView(l *ledger.Ledger, a *daily.Aggregate, p *progress.Presenter, release func()) *MealView {
	v := &MealView{ledger: l, aggregate: a, presenter: p, release: release}
	v.unsubscribe = a.Subscribe(v.onSnapshot)
	v.onSnapshot(a.Snapshot())
	return v
}

// onSnapshot feeds the presenter. Numbers from before the aggregate finished
// loading are skipped so the bar never animates up from a transient zero.
func (v *MealView) onSnapshot(s daily.Snapshot) {
	if !s.Loaded {
		return
	}
	v.presenter.Update(
		progress.Ratio(s.TotalCalories, s.CalorieGoal),
		s.MealCalories.Get(v.ledger.Category()),
		s.TotalCalories,
	)
}

func (v *MealView) Category() core.Category { return v.ledger.Category() }

func (v *MealView) Items() []core.CatalogItem {
	return append([]core.CatalogItem(nil), v.ledger.Catalog().Items...)
}

func (v *MealView) Servings() map[string]int { return v.ledger.Servings() }

// UpdateServings changes one item's count. Unknown item names panic.
func (v *MealView) UpdateServings(name string, action ledger.Action) bool {
	return v.ledger.Update(name, action)
}

func (v *MealView) ItemTotal(item core.CatalogItem) int { return v.ledger.ItemTotal(item) }

func (v *MealView) CategoryTotal() int { return v.ledger.CategoryTotal() }

func (v *MealView) DailyTotal() int { return v.aggregate.TotalCalories() }

func (v *MealView) CalorieGoal() int { return v.aggregate.Goals().Calories }

func (v *MealView) Loaded() bool { return v.aggregate.Loaded() && v.ledger.Loaded() }

func (v *MealView) Frame() progress.Frame { return v.presenter.Frame() }

// Close detaches the view from the aggregate. Closing the last view of a
// category writes its pending servings and drops the ledger.
func (v *MealView) Close() {
	v.closeOnce.Do(func() {
		v.unsubscribe()
		if v.release != nil {
			v.release()
		}
	})
}
