package catalog

import (
	"strings"
)

// University is a single catalog record. Records are shared between requests
// and must be treated as read-only once the catalog is built.
type University struct {
	Name             string  `json:"university"`
	Country          string  `json:"country"`
	WorldRank        int     `json:"world_rank"`
	TuitionUSD       float64 `json:"tuition_usd"`
	GPAMin           float64 `json:"gpa_min"`
	GPACompetitive   float64 `json:"gpa_competitive"`
	TestBenchmark    int     `json:"test_benchmark"`
	IELTSMin         float64 `json:"ielts_min"`
	ScholarshipLinks string  `json:"scholarship_links"`
	AppDeadline      string  `json:"app_deadline"`
	TopSectors       string  `json:"top_sectors"`

	sectors []string
}

// Sectors returns the lower-cased, trimmed tags parsed from TopSectors.
// The returned slice is shared and must not be modified.
func (u *University) Sectors() []string {
	if u.sectors == nil && u.TopSectors != "" {
		return ParseSectors(u.TopSectors)
	}
	return u.sectors
}

// HasSector reports whether any of the university sectors contains needle,
// ignoring case.
func (u *University) HasSector(needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}

	for _, sector := range u.Sectors() {
		if strings.Contains(sector, needle) {
			return true
		}
	}
	return false
}

// ParseSectors splits a comma-separated sector list into lower-cased tags.
// Empty tags are dropped.
func ParseSectors(raw string) []string {
	parts := strings.Split(raw, ",")
	sectors := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		sectors = append(sectors, part)
	}
	return sectors
}
