package filtering

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/profile"
)

// Filter represents a single eligibility step applied to universities.
// Apply must not modify the input slice or the records.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(u []*catalog.University) ([]*catalog.University, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains settings consumed by the filters.
type Config struct {
	// TestTolerance is the half width of the accepted window around a test benchmark.
	TestTolerance int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// ForProfile builds the eligibility steps for the profile in their application order.
func ForProfile(p profile.StudentProfile, cfg Config) []Filter {
	return []Filter{
		NewGPA(p.GPA),
		NewBudget(p.Budget),
		NewTestScore(p.TestScore, cfg.TestTolerance),
		NewIELTS(p.IELTSScore),
		NewCountries(p.PreferredCountries),
		NewSectors(p.PreferredSectors),
	}
}

// Run executes the supplied filters sequentially and returns the universities left.
// The input slice is not modified.
func Run(steps []Filter, u []*catalog.University, logger *zap.Logger) ([]*catalog.University, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	left := slices.Clone(u)
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info := step.Apply(left)

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		left = next
	}

	return left, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns a new slice with the universities accepted by pred.
func keep(u []*catalog.University, pred func(*catalog.University) bool) ([]*catalog.University, Step) {
	kept := make([]*catalog.University, 0, len(u))
	for _, item := range u {
		if pred(item) {
			kept = append(kept, item)
		}
	}
	return kept, Step{Initial: len(u), Dropped: len(u) - len(kept), Left: len(kept)}
}
