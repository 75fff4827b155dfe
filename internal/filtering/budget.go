package filtering

import (
	"strconv"

	"github.com/spigell/uni-matcher/internal/catalog"
)

type budgetFilter struct {
	budget float64
}

// NewBudget creates a filter that removes universities with tuition above the budget.
func NewBudget(budget float64) Filter {
	return &budgetFilter{budget: budget}
}

func (f *budgetFilter) Name() string { return "budget" }

// Disable is a no-op: affordability can not be turned off.
func (f *budgetFilter) Disable(string) {}

func (f *budgetFilter) IsEnabled() bool { return true }

func (f *budgetFilter) Validate() error { return nil }

func (f *budgetFilter) Apply(u []*catalog.University) ([]*catalog.University, Step) {
	return keep(u, func(item *catalog.University) bool {
		return item.TuitionUSD <= f.budget
	})
}

func (f *budgetFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"budget": strconv.FormatFloat(f.budget, 'f', 2, 64)},
	}
}
