package catalog

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinGPA       = 0.0
	MaxGPA       = 4.0
	MinTestScore = 400
	MaxTestScore = 1600
	MinIELTS     = 0.0
	MaxIELTS     = 9.0
)

// IntegrityError describes a catalog record that violates the record constraints.
type IntegrityError struct {
	Index  int
	Name   string
	Field  string
	Reason string
}

func (e *IntegrityError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("record %d (%s): %s %s", e.Index, name, e.Field, e.Reason)
}

func check(idx int, u *University) error {
	fail := func(field, reason string) error {
		return &IntegrityError{Index: idx, Name: u.Name, Field: field, Reason: reason}
	}

	switch {
	case strings.TrimSpace(u.Name) == "":
		return fail("university", "must not be empty")
	case strings.TrimSpace(u.Country) == "":
		return fail("country", "must not be empty")
	case u.WorldRank <= 0:
		return fail("world_rank", "must be a positive integer")
	case !finite(u.TuitionUSD) || u.TuitionUSD < 0:
		return fail("tuition_usd", "must be a non-negative number")
	case !inRange(u.GPAMin, MinGPA, MaxGPA):
		return fail("gpa_min", fmt.Sprintf("must be between %.1f and %.1f", MinGPA, MaxGPA))
	case !inRange(u.GPACompetitive, MinGPA, MaxGPA):
		return fail("gpa_competitive", fmt.Sprintf("must be between %.1f and %.1f", MinGPA, MaxGPA))
	case u.GPACompetitive < u.GPAMin:
		return fail("gpa_competitive", "must not be lower than gpa_min")
	case u.TestBenchmark < MinTestScore || u.TestBenchmark > MaxTestScore:
		return fail("test_benchmark", fmt.Sprintf("must be between %d and %d", MinTestScore, MaxTestScore))
	case !inRange(u.IELTSMin, MinIELTS, MaxIELTS):
		return fail("ielts_min", fmt.Sprintf("must be between %.1f and %.1f", MinIELTS, MaxIELTS))
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func inRange(v, lo, hi float64) bool {
	return finite(v) && v >= lo && v <= hi
}
