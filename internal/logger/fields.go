package logger

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/profile"
)

const (
	FieldComponent = "component"
	// FieldRequestID is the structured log field key for the HTTP request id.
	FieldRequestID = "request_id"
	// FieldCatalogSource is the structured log field key for the catalog location.
	FieldCatalogSource = "catalog_source"
	// FieldCatalogScheme is the structured log field key for the catalog transport.
	FieldCatalogScheme = "catalog_scheme"
)

// Strings turns key/value pairs into zap string fields.
// Keys and values are trimmed, pairs with a blank side are omitted and an unpaired trailing key is ignored.
func Strings(pairs ...string) []zap.Field {
	result := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// ForComponent returns a child logger tagged with the component name and the extra fields.
// A nil logger is replaced with a no-op one.
func ForComponent(log *zap.Logger, component string, fields ...zap.Field) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}

	tagged := append(Strings(FieldComponent, component), fields...)
	if len(tagged) == 0 {
		return log
	}
	return log.With(tagged...)
}

// CatalogFields describes where the catalog comes from.
func CatalogFields(location string) []zap.Field {
	location = strings.TrimSpace(location)

	scheme := "file"
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		scheme = strings.ToLower(u.Scheme)
	}

	return Strings(
		FieldCatalogSource, RedactLocation(location),
		FieldCatalogScheme, scheme,
	)
}

// RedactLocation hides the user info and drops the query of a catalog URL,
// since presigned and basic auth URLs carry credentials there. Plain paths are returned as is.
func RedactLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return location
	}

	u.RawQuery = ""
	u.Fragment = ""
	return u.Redacted()
}

// ProfileFields describes a student profile. Empty preferences are omitted.
func ProfileFields(p profile.StudentProfile) []zap.Field {
	fields := []zap.Field{
		zap.Float64("gpa", p.GPA),
		zap.Float64("budget", p.Budget),
		zap.Int("test_score", p.TestScore),
		zap.Float64("ielts_score", p.IELTSScore),
	}

	return append(fields, Strings(
		"preferred_countries", strings.Join(p.PreferredCountries, ","),
		"preferred_sectors", strings.Join(p.PreferredSectors, ","),
	)...)
}
