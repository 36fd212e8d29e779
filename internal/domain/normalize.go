package domain

import (
	"errors"
	"fmt"
)

// LabelUnknown marks time-series rows whose location the upstream source
// could not attribute to any county.
const LabelUnknown = "Unknown"

// cityRemap redirects a city-labeled row to the county that actually
// contains it.
type cityRemap struct {
	County string
	State  string
}

// cityRemaps lists the non-county labels the time-series source is known to
// emit. These cities report independently of their counties upstream, so
// their rows arrive with an empty FIPS and a city name in the county column.
var cityRemaps = map[string]cityRemap{
	"New York City": {County: "New York", State: "New York"},
	"Kansas City":   {County: "Jackson", State: "Missouri"},
	"Joplin":        {County: "Jasper", State: "Missouri"},
}

// ErrNoLocation marks rows dropped because no county can be recovered:
// "Unknown" rows and any other row with neither a FIPS code nor a known
// special-case city label.
var ErrNoLocation = errors.New("no resolvable location")

// RemapError reports a special-case city whose FIPS could not be resolved
// against the gazetteer. The row is dropped; callers log it as a
// data-integrity warning and continue.
type RemapError struct {
	City  string
	State string
	Err   error
}

func (e *RemapError) Error() string {
	return fmt.Sprintf("remap %s, %s: gazetteer lookup failed: %v", e.City, e.State, e.Err)
}

func (e *RemapError) Unwrap() error { return e.Err }

// IsReservedLabel reports whether a county-column value denotes a non-county
// entity requiring remapping or removal.
func IsReservedLabel(name string) bool {
	if name == LabelUnknown {
		return true
	}
	_, ok := cityRemaps[name]
	return ok
}

// Normalize converts a raw row into zero or one normalized observation.
//
// Rows with a usable FIPS and a real county name pass through with derived
// keys. Special-case city rows are rewritten to their containing county,
// with FIPS resolved from the gazetteer by the ORIGINAL city name and row
// state. Everything else is dropped: ErrNoLocation for unrecoverable rows,
// *RemapError when a special-case resolution fails.
//
// The mapping is total and order-independent: the same input always yields
// the same observation or the same drop decision.
func Normalize(raw RawObservation, gaz *Gazetteer) (NormalizedObservation, error) {
	if remap, ok := cityRemaps[raw.County]; ok {
		// Resolve FIPS by the original city label first; the gazetteer does
		// not always carry the label the time-series source uses, so fall
		// back to the target county.
		fips, err := gaz.CityFIPS(raw.County, raw.State)
		if err != nil {
			fips, err = gaz.CountyFIPS(remap.County, remap.State)
		}
		if err != nil {
			return NormalizedObservation{}, &RemapError{City: raw.County, State: raw.State, Err: err}
		}
		raw.County = remap.County
		raw.State = remap.State
		raw.FIPS = fips
		return build(raw), nil
	}

	if raw.FIPS == "" {
		return NormalizedObservation{}, fmt.Errorf("%s, %s on %s: %w",
			raw.County, raw.State, raw.Date.Format("2006-01-02"), ErrNoLocation)
	}
	if raw.County == LabelUnknown {
		return NormalizedObservation{}, fmt.Errorf("%s, %s on %s: %w",
			raw.County, raw.State, raw.Date.Format("2006-01-02"), ErrNoLocation)
	}

	return build(raw), nil
}

func build(raw RawObservation) NormalizedObservation {
	return NormalizedObservation{
		Date:             raw.Date,
		County:           raw.County,
		State:            raw.State,
		FIPS:             raw.FIPS,
		Cases:            raw.Cases,
		Deaths:           raw.Deaths,
		CountyStateKey:   LocationKey(raw.County, raw.State),
		PeriodKey:        PeriodOf(raw.Date),
		CasesPerThousand: caseDensityBucket(raw.Cases),
		ProcessedAt:      clock.Now(),
	}
}
