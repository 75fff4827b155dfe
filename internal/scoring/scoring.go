package scoring

import (
	"cmp"
	"math"
	"slices"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/profile"
)

// Sub-score weights. They sum up to MaxScore.
const (
	GPAWeight    = 30.0
	BudgetWeight = 25.0
	TestWeight   = 20.0
	RankWeight   = 25.0

	MaxScore = 100.0
)

// Config holds the constants the scores depend on.
type Config struct {
	// TestTolerance is the distance from the benchmark at which the test sub-score reaches zero.
	// It should match the tolerance of the test score filter.
	TestTolerance int
	// RankCeiling is the world rank that earns no rank points.
	// Zero means the worst rank among the ranked universities.
	RankCeiling int
}

// Breakdown holds the sub-scores of a single university.
type Breakdown struct {
	GPA       float64 `json:"gpa"`
	Budget    float64 `json:"budget"`
	TestScore float64 `json:"test_score"`
	WorldRank float64 `json:"world_rank"`
	Total     float64 `json:"total"`
}

// Result is a university with its match score.
type Result struct {
	*catalog.University
	MatchScore float64   `json:"match_score"`
	Breakdown  Breakdown `json:"score_breakdown"`
}

// Ranking is an ordered, possibly truncated, list of results.
type Ranking struct {
	Results      []Result
	Count        int
	TotalMatches int
}

type Scorer struct {
	cfg Config
}

func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Rank scores the eligible universities, orders them by score descending and
// world rank ascending, and keeps at most limit of them. A non-positive limit keeps all.
func (s *Scorer) Rank(eligible []*catalog.University, p profile.StudentProfile, limit int) Ranking {
	ceiling := s.cfg.RankCeiling
	if ceiling <= 0 {
		for _, u := range eligible {
			ceiling = max(ceiling, u.WorldRank)
		}
	}

	results := make([]Result, 0, len(eligible))
	for _, u := range eligible {
		b := s.score(u, p, ceiling)
		results = append(results, Result{University: u, MatchScore: b.Total, Breakdown: b})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.MatchScore, a.MatchScore); c != 0 {
			return c
		}
		return cmp.Compare(a.WorldRank, b.WorldRank)
	})

	total := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return Ranking{Results: results, Count: len(results), TotalMatches: total}
}

func (s *Scorer) score(u *catalog.University, p profile.StudentProfile, ceiling int) Breakdown {
	b := Breakdown{
		GPA:       GPAWeight * gpaRatio(p.GPA, u.GPAMin, u.GPACompetitive),
		Budget:    BudgetWeight * budgetRatio(p.Budget, u.TuitionUSD),
		TestScore: TestWeight * testRatio(p.TestScore, u.TestBenchmark, s.cfg.TestTolerance),
		WorldRank: RankWeight * rankRatio(u.WorldRank, ceiling),
	}

	b.Total = round(clamp(b.GPA+b.Budget+b.TestScore+b.WorldRank, 0, MaxScore))
	b.GPA = round(b.GPA)
	b.Budget = round(b.Budget)
	b.TestScore = round(b.TestScore)
	b.WorldRank = round(b.WorldRank)

	return b
}

// gpaRatio is the progress from the minimum towards the competitive GPA.
func gpaRatio(gpa, minimum, competitive float64) float64 {
	if competitive <= minimum {
		if gpa >= minimum {
			return 1
		}
		return 0
	}
	return clamp((gpa-minimum)/(competitive-minimum), 0, 1)
}

// budgetRatio is the share of the budget left after paying the tuition.
func budgetRatio(budget, tuition float64) float64 {
	if budget <= 0 {
		if tuition <= 0 {
			return 1
		}
		return 0
	}
	return clamp((budget-tuition)/budget, 0, 1)
}

func testRatio(score, benchmark, tolerance int) float64 {
	diff := math.Abs(float64(score - benchmark))
	if tolerance <= 0 {
		if diff == 0 {
			return 1
		}
		return 0
	}
	return clamp(1-diff/float64(tolerance), 0, 1)
}

// rankRatio maps rank 1 to 1 and ranks at or past the ceiling to 0.
func rankRatio(rank, ceiling int) float64 {
	if ceiling <= 1 {
		if rank <= 1 {
			return 1
		}
		return 0
	}
	return clamp(float64(ceiling-rank)/float64(ceiling-1), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
