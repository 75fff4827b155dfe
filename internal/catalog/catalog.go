package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
)

// Catalog is an immutable collection of universities.
// It is safe for concurrent use since nothing is written after New returns.
type Catalog struct {
	items []*University
}

// Query narrows a catalog listing. Zero values mean no constraint.
type Query struct {
	Country    string
	MaxTuition *float64
	MinRank    *int
	MaxRank    *int
}

// Range aggregates a single numeric column.
type Range struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Stats summarizes the catalog.
type Stats struct {
	TotalUniversities int   `json:"total_universities"`
	CountriesCount    int   `json:"countries_count"`
	Tuition           Range `json:"tuition_range"`
	GPAMin            Range `json:"gpa_min_range"`
	GPACompetitive    Range `json:"gpa_competitive_range"`
	TestScore         Range `json:"test_score_range"`
	IELTS             Range `json:"ielts_range"`
}

// New checks every record and builds a catalog from copies of them.
// The first record violating the constraints is reported as *IntegrityError.
func New(records []University) (*Catalog, error) {
	items := make([]*University, 0, len(records))
	ranks := make(map[int]int, len(records))

	for idx := range records {
		u := records[idx]
		if err := check(idx, &u); err != nil {
			return nil, err
		}

		if prev, ok := ranks[u.WorldRank]; ok {
			return nil, &IntegrityError{
				Index:  idx,
				Name:   u.Name,
				Field:  "world_rank",
				Reason: fmt.Sprintf("duplicates record %d", prev),
			}
		}
		ranks[u.WorldRank] = idx

		u.sectors = ParseSectors(u.TopSectors)
		items = append(items, &u)
	}

	return &Catalog{items: items}, nil
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// All returns every university in load order.
func (c *Catalog) All() []*University {
	return slices.Clone(c.items)
}

// Find returns the universities matching all the query constraints, in load order.
func (c *Catalog) Find(q Query) []*University {
	found := make([]*University, 0, len(c.items))
	for _, u := range c.items {
		if q.Country != "" && u.Country != q.Country {
			continue
		}
		if q.MaxTuition != nil && u.TuitionUSD > *q.MaxTuition {
			continue
		}
		if q.MinRank != nil && u.WorldRank < *q.MinRank {
			continue
		}
		if q.MaxRank != nil && u.WorldRank > *q.MaxRank {
			continue
		}
		found = append(found, u)
	}
	return found
}

// Countries returns the sorted distinct country names.
func (c *Catalog) Countries() []string {
	seen := make(map[string]struct{})
	countries := make([]string, 0)
	for _, u := range c.items {
		if _, ok := seen[u.Country]; ok {
			continue
		}
		seen[u.Country] = struct{}{}
		countries = append(countries, u.Country)
	}
	sort.Strings(countries)
	return countries
}

// Stats computes the aggregates on demand. An empty catalog yields zero ranges.
func (c *Catalog) Stats() Stats {
	column := func(get func(u *University) float64) Range {
		if len(c.items) == 0 {
			return Range{}
		}

		r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
		sum := 0.0
		for _, u := range c.items {
			v := get(u)
			r.Min = math.Min(r.Min, v)
			r.Max = math.Max(r.Max, v)
			sum += v
		}
		r.Average = math.Round(sum/float64(len(c.items))*100) / 100
		return r
	}

	return Stats{
		TotalUniversities: len(c.items),
		CountriesCount:    len(c.Countries()),
		Tuition:           column(func(u *University) float64 { return u.TuitionUSD }),
		GPAMin:            column(func(u *University) float64 { return u.GPAMin }),
		GPACompetitive:    column(func(u *University) float64 { return u.GPACompetitive }),
		TestScore:         column(func(u *University) float64 { return float64(u.TestBenchmark) }),
		IELTS:             column(func(u *University) float64 { return u.IELTSMin }),
	}
}

// DumpToTmpFile writes the given universities as indented JSON to a new temporary file
// and returns its name.
func DumpToTmpFile(universities []*University) (string, error) {
	file, err := os.CreateTemp("", "universities_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(universities); err != nil {
		return "", err
	}
	return file.Name(), nil
}
