package filtering

import (
	"strings"

	"github.com/spigell/uni-matcher/internal/catalog"
)

const (
	noCountriesMsg = "no preferred countries"
	noSectorsMsg   = "no preferred sectors"
)

type countriesFilter struct {
	enabled   bool
	reason    string
	countries map[string]struct{}
	names     []string
}

// NewCountries creates a filter that keeps universities located in one of the countries.
// Names are compared exactly after trimming and duplicates are ignored. An empty list disables the filter.
func NewCountries(countries []string) Filter {
	f := &countriesFilter{
		enabled:   true,
		countries: make(map[string]struct{}, len(countries)),
	}

	for _, country := range countries {
		country = strings.TrimSpace(country)
		if country == "" {
			continue
		}
		if _, seen := f.countries[country]; seen {
			continue
		}
		f.countries[country] = struct{}{}
		f.names = append(f.names, country)
	}

	if len(f.countries) == 0 {
		f.Disable(noCountriesMsg)
	}

	return f
}

func (f *countriesFilter) Name() string { return "country" }

func (f *countriesFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *countriesFilter) IsEnabled() bool { return f.enabled }

func (f *countriesFilter) Validate() error { return nil }

func (f *countriesFilter) Apply(u []*catalog.University) ([]*catalog.University, Step) {
	return keep(u, func(item *catalog.University) bool {
		_, ok := f.countries[item.Country]
		return ok
	})
}

func (f *countriesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["countries"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: details}
}

type sectorsFilter struct {
	enabled bool
	reason  string
	sectors []string
}

// NewSectors creates a filter that keeps universities with at least one sector
// containing one of the preferred sectors, ignoring case. "engineer" therefore
// matches "Mechanical Engineering". An empty list disables the filter.
func NewSectors(sectors []string) Filter {
	f := &sectorsFilter{enabled: true}

	for _, sector := range sectors {
		sector = strings.ToLower(strings.TrimSpace(sector))
		if sector == "" {
			continue
		}
		f.sectors = append(f.sectors, sector)
	}

	if len(f.sectors) == 0 {
		f.Disable(noSectorsMsg)
	}

	return f
}

func (f *sectorsFilter) Name() string { return "sector" }

func (f *sectorsFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *sectorsFilter) IsEnabled() bool { return f.enabled }

func (f *sectorsFilter) Validate() error { return nil }

func (f *sectorsFilter) Apply(u []*catalog.University) ([]*catalog.University, Step) {
	return keep(u, func(item *catalog.University) bool {
		for _, sector := range f.sectors {
			if item.HasSector(sector) {
				return true
			}
		}
		return false
	})
}

func (f *sectorsFilter) Status() Status {
	details := map[string]string{}
	if len(f.sectors) > 0 {
		details["sectors"] = strings.Join(f.sectors, ",")
	}
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: details}
}
