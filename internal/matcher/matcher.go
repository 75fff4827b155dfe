package matcher

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/filtering"
	"github.com/spigell/uni-matcher/internal/logger"
	"github.com/spigell/uni-matcher/internal/profile"
	"github.com/spigell/uni-matcher/internal/scoring"
)

const (
	DefaultTestTolerance = 120
	DefaultRankCeiling   = 1000
	DefaultLimit         = 20
	DefaultMaxLimit      = 100
)

// Config holds the matching constants.
type Config struct {
	TestTolerance int `mapstructure:"test-tolerance"`
	// RankCeiling is the world rank that earns no rank points. Zero selects
	// the worst rank among the eligible universities.
	RankCeiling  int `mapstructure:"rank-ceiling"`
	DefaultLimit int `mapstructure:"default-limit"`
	MaxLimit     int `mapstructure:"max-limit"`
}

// DefaultConfig returns the configuration used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TestTolerance: DefaultTestTolerance,
		RankCeiling:   DefaultRankCeiling,
		DefaultLimit:  DefaultLimit,
		MaxLimit:      DefaultMaxLimit,
	}
}

// Recommendation is the outcome of a match request.
// Count is the number of returned recommendations, TotalMatches the number of
// eligible universities before truncation.
type Recommendation struct {
	Recommendations []scoring.Result `json:"recommendations"`
	Count           int              `json:"count"`
	TotalMatches    int              `json:"total_matches"`
}

// Matcher ranks catalog universities against student profiles.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	catalog *catalog.Catalog
	cfg     Config
	scorer  *scoring.Scorer
	logger  *zap.Logger
}

func New(c *catalog.Catalog, cfg Config, log *zap.Logger) (*Matcher, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.TestTolerance < 0 {
		return nil, fmt.Errorf("test tolerance must not be negative, got %d", cfg.TestTolerance)
	}
	if cfg.RankCeiling < 0 {
		return nil, fmt.Errorf("rank ceiling must not be negative, got %d", cfg.RankCeiling)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		return nil, fmt.Errorf("default limit %d exceeds max limit %d", cfg.DefaultLimit, cfg.MaxLimit)
	}

	return &Matcher{
		catalog: c,
		cfg:     cfg,
		scorer: scoring.New(scoring.Config{
			TestTolerance: cfg.TestTolerance,
			RankCeiling:   cfg.RankCeiling,
		}),
		logger: logger.ForComponent(log, "matcher", zap.Int("catalog_size", c.Len())),
	}, nil
}

// GetAll returns catalog universities narrowed by the query.
func (m *Matcher) GetAll(q catalog.Query) []*catalog.University {
	return m.catalog.Find(q)
}

// Recommend filters the catalog for the profile and returns the best matches.
// Zero limit selects the configured default. An invalid profile or limit is
// reported as *profile.ValidationError. No eligible university is not an error.
func (m *Matcher) Recommend(p profile.StudentProfile, limit int) (*Recommendation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch {
	case limit < 0 || limit > m.cfg.MaxLimit:
		return nil, &profile.ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d", m.cfg.MaxLimit),
		}
	case limit == 0:
		limit = m.cfg.DefaultLimit
	}

	steps := filtering.ForProfile(p, filtering.Config{TestTolerance: m.cfg.TestTolerance})

	eligible, err := filtering.Run(steps, m.catalog.All(), m.logger)
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}

	ranking := m.scorer.Rank(eligible, p, limit)

	m.logger.Debug("recommendations ready",
		append(logger.ProfileFields(p),
			zap.Int("count", ranking.Count),
			zap.Int("total_matches", ranking.TotalMatches),
		)...,
	)

	return &Recommendation{
		Recommendations: ranking.Results,
		Count:           ranking.Count,
		TotalMatches:    ranking.TotalMatches,
	}, nil
}

// Countries returns the sorted distinct countries of the catalog.
func (m *Matcher) Countries() []string {
	return m.catalog.Countries()
}

// Stats returns aggregates over the catalog.
func (m *Matcher) Stats() catalog.Stats {
	return m.catalog.Stats()
}

// Filters describes the eligibility steps that a profile would go through.
func (m *Matcher) Filters(p profile.StudentProfile) []filtering.Status {
	return filtering.Describe(filtering.ForProfile(p, filtering.Config{TestTolerance: m.cfg.TestTolerance}))
}
