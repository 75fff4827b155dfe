package profile

import (
	"strings"
)

// Input is a profile as supplied by a caller. Required fields are pointers
// so that a missing value can be told apart from a zero.
type Input struct {
	GPA                *float64 `json:"gpa" mapstructure:"gpa"`
	Budget             *float64 `json:"budget" mapstructure:"budget"`
	TestScore          *int     `json:"test_score" mapstructure:"test_score"`
	IELTSScore         *float64 `json:"ielts_score" mapstructure:"ielts_score"`
	PreferredCountries []string `json:"preferred_countries" mapstructure:"preferred_countries"`
	PreferredSectors   []string `json:"preferred_sectors" mapstructure:"preferred_sectors"`
}

// Missing returns the names of required fields without a value.
func (in *Input) Missing() []string {
	var missing []string
	if in.GPA == nil {
		missing = append(missing, "gpa")
	}
	if in.Budget == nil {
		missing = append(missing, "budget")
	}
	if in.TestScore == nil {
		missing = append(missing, "test_score")
	}
	if in.IELTSScore == nil {
		missing = append(missing, "ielts_score")
	}
	return missing
}

// Profile checks the input and converts it to a validated StudentProfile.
func (in *Input) Profile() (StudentProfile, error) {
	if missing := in.Missing(); len(missing) > 0 {
		return StudentProfile{}, &ValidationError{
			Field:  strings.Join(missing, ", "),
			Reason: "is required",
		}
	}

	p := StudentProfile{
		GPA:                *in.GPA,
		Budget:             *in.Budget,
		TestScore:          *in.TestScore,
		IELTSScore:         *in.IELTSScore,
		PreferredCountries: in.PreferredCountries,
		PreferredSectors:   in.PreferredSectors,
	}

	if err := p.Validate(); err != nil {
		return StudentProfile{}, err
	}
	return p, nil
}
