package filtering

import (
	"fmt"
	"strconv"

	"github.com/spigell/uni-matcher/internal/catalog"
)

type gpaFilter struct {
	gpa float64
}

// NewGPA creates a filter that removes universities whose minimum GPA is above the student GPA.
func NewGPA(gpa float64) Filter {
	return &gpaFilter{gpa: gpa}
}

func (f *gpaFilter) Name() string { return "gpa" }

func (f *gpaFilter) Disable(string) {}

func (f *gpaFilter) IsEnabled() bool { return true }

func (f *gpaFilter) Validate() error { return nil }

func (f *gpaFilter) Apply(u []*catalog.University) ([]*catalog.University, Step) {
	return keep(u, func(item *catalog.University) bool {
		return f.gpa >= item.GPAMin
	})
}

func (f *gpaFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"gpa": strconv.FormatFloat(f.gpa, 'f', 2, 64)},
	}
}

type testScoreFilter struct {
	score     int
	tolerance int
}

// NewTestScore creates a filter that keeps universities whose test benchmark lies
// within tolerance points of the score, in both directions.
func NewTestScore(score, tolerance int) Filter {
	return &testScoreFilter{score: score, tolerance: tolerance}
}

func (f *testScoreFilter) Name() string { return "test_score" }

func (f *testScoreFilter) Disable(string) {}

func (f *testScoreFilter) IsEnabled() bool { return true }

func (f *testScoreFilter) Validate() error {
	if f.tolerance < 0 {
		return fmt.Errorf("test score tolerance must not be negative, got %d", f.tolerance)
	}
	return nil
}

func (f *testScoreFilter) Apply(u []*catalog.University) ([]*catalog.University, Step) {
	return keep(u, func(item *catalog.University) bool {
		return abs(f.score-item.TestBenchmark) <= f.tolerance
	})
}

func (f *testScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{
			"test_score": strconv.Itoa(f.score),
			"tolerance":  strconv.Itoa(f.tolerance),
		},
	}
}

type ieltsFilter struct {
	score float64
}

// NewIELTS creates a filter that removes universities requiring a higher IELTS score.
func NewIELTS(score float64) Filter {
	return &ieltsFilter{score: score}
}

func (f *ieltsFilter) Name() string { return "ielts" }

func (f *ieltsFilter) Disable(string) {}

func (f *ieltsFilter) IsEnabled() bool { return true }

func (f *ieltsFilter) Validate() error { return nil }

func (f *ieltsFilter) Apply(u []*catalog.University) ([]*catalog.University, Step) {
	return keep(u, func(item *catalog.University) bool {
		return f.score >= item.IELTSMin
	})
}

func (f *ieltsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"ielts_score": strconv.FormatFloat(f.score, 'f', 1, 64)},
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
