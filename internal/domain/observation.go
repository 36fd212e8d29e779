package domain

import "time"

// RawObservation is one row of the county time-series source: a cumulative
// case/death count for a county on a date. FIPS may be empty — some rows
// carry a city or "Unknown" label instead of a real county.
type RawObservation struct {
	Date   time.Time `json:"date"`
	County string    `json:"county"`
	State  string    `json:"state"`
	FIPS   string    `json:"fips,omitempty"` // 5-digit county code, empty when unassigned
	Cases  int       `json:"cases"`
	Deaths int       `json:"deaths"`
}

// GazetteerEntry is one row of the static city reference table. Many entries
// share a county; county_fips may repeat across rows.
type GazetteerEntry struct {
	City       string `json:"city"`
	StateAbbr  string `json:"state_id"`
	StateName  string `json:"state_name"`
	CountyName string `json:"county_name"`
	CountyFIPS string `json:"county_fips"`
}

// NormalizedObservation is the domain-rich representation after location
// repair. FIPS is always populated and County is never a reserved label.
type NormalizedObservation struct {
	Date   time.Time `json:"date"`
	County string    `json:"county"`
	State  string    `json:"state"`
	FIPS   string    `json:"fips"`
	Cases  int       `json:"cases"`
	Deaths int       `json:"deaths"`

	// Derived lookup keys.
	CountyStateKey string `json:"county_state_key"` // "County, State"
	PeriodKey      string `json:"period_key"`       // "Mon, YYYY"

	// Display bucket for choropleth shading: cases/1000, clipped to [0, 11].
	CasesPerThousand float64 `json:"cases_per_thousand"`

	ProcessedAt time.Time `json:"processed_at"`
}

// CityInfo is the result of resolving a city label against the gazetteer.
type CityInfo struct {
	City   string `json:"city"`
	County string `json:"county"`
	State  string `json:"state"`
}

// LocationKey builds the "County, State" composite key used throughout the
// store and query surface.
func LocationKey(county, state string) string {
	return county + ", " + state
}

// PeriodOf buckets a date into its calendar-month period label, e.g.
// 2020-03-15 -> "Mar, 2020".
func PeriodOf(date time.Time) string {
	return date.Format("Jan, 2006")
}

// caseDensityBucket derives the display shading bucket from a cumulative
// count. The upper clip keeps a handful of outlier counties from washing out
// the map's color scale.
func caseDensityBucket(cases int) float64 {
	b := float64(cases) / 1000
	if b < 0 {
		return 0
	}
	if b > 11 {
		return 11
	}
	return b
}
