// Package domain models US county-level epidemic counts and the static city
// gazetteer they are reconciled against.
//
// # Data Sources
//
// The time series follows the New York Times COVID-19 county dataset layout
// (https://github.com/nytimes/covid-19-data): one row per (county, date) with
// columns date, county, state, fips, cases, deaths. Counts are CUMULATIVE,
// not incremental, and non-decreasing per county except where upstream
// corrections are published. Dates are ISO 8601 and non-decreasing per county.
//
// The gazetteer follows the SimpleMaps US cities layout: columns city,
// state_id, state_name, county_fips, county_name. It is static, unordered,
// and carries one row per city, so a county appears on many rows.
//
// # Geographic Exceptions
//
// The time-series source publishes a handful of rows whose county column does
// not name a county:
//
//	"New York City"  all five boroughs reported as one entity, no FIPS.
//	                 Remapped to New York county, New York.
//	"Kansas City"    reported independently of the four counties it spans,
//	                 no FIPS. Remapped to Jackson county, Missouri.
//	"Joplin"         reported independently starting June 2020, no FIPS.
//	                 Remapped to Jasper county, Missouri.
//	"Unknown"        counts the state could not attribute to any county,
//	                 no FIPS. Dropped — there is no geography to recover.
//
// Remapped rows resolve their FIPS through the gazetteer using the original
// city name, then take the target county's identity. Any other row with an
// empty FIPS is dropped rather than guessed at.
//
// # Keys and Periods
//
// Locations are keyed "County, State" (e.g. "Jackson, Missouri"); periods
// are calendar-month buckets labeled "Mon, YYYY" (e.g. "Mar, 2020"). FIPS
// codes are 5-digit strings with leading zeros preserved.
package domain
