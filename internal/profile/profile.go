package profile

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StudentProfile is the academic profile and the preferences of a student.
type StudentProfile struct {
	GPA                float64  `json:"gpa" validate:"finite,gte=0,lte=4"`
	Budget             float64  `json:"budget" validate:"finite,gte=0"`
	TestScore          int      `json:"test_score" validate:"gte=400,lte=1600"`
	IELTSScore         float64  `json:"ielts_score" validate:"finite,gte=0,lte=9"`
	PreferredCountries []string `json:"preferred_countries,omitempty" validate:"dive,notblank"`
	PreferredSectors   []string `json:"preferred_sectors,omitempty" validate:"dive,notblank"`
}

// ValidationError points to the profile field a caller has to correct.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

var reasons = map[string]string{
	"gpa":         "must be a number between 0 and 4.0",
	"budget":      "must be a non-negative number",
	"test_score":  "must be an integer between 400 and 1600",
	"ielts_score": "must be a number between 0 and 9",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}

	mustRegister("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	mustRegister("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Validate reports the first field violating its declared range.
// Values are never clamped or otherwise repaired.
func (p *StudentProfile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Reason: FieldReason(fe.Field())}
}

// FieldReason returns the message describing the accepted values of a profile field.
func FieldReason(field string) string {
	if reason, ok := reasons[field]; ok {
		return reason
	}
	return "must not be blank"
}
