// Package dataset holds the immutable derived view of the normalized time
// series and the aggregation engine that answers location/period queries
// over it. Everything here is built once at startup and read-only after,
// so concurrent queries need no locking.
package dataset

import (
	"sort"
	"time"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

// Store indexes normalized observations by (location, period) and by
// (state, period), and keeps each location's full date-ordered history.
//
// Per-period entries carry the field-wise MAXIMUM cumulative values seen for
// that location within the period. Cumulative counts only legitimately
// increase, so the maximum is the period-end value and is immune to
// same-period duplicates or out-of-order input.
type Store struct {
	series           map[string][]domain.NormalizedObservation
	byLocationPeriod map[string]map[string]domain.NormalizedObservation
	stateCounties    map[string]map[string][]string // state -> period -> location keys
	periodMaxDate    map[string]time.Time
	latestDate       time.Time
}

// NewStore builds all indexes in one pass plus a per-location sort.
func NewStore(observations []domain.NormalizedObservation) *Store {
	s := &Store{
		series:           make(map[string][]domain.NormalizedObservation),
		byLocationPeriod: make(map[string]map[string]domain.NormalizedObservation),
		stateCounties:    make(map[string]map[string][]string),
		periodMaxDate:    make(map[string]time.Time),
	}

	for _, o := range observations {
		key, period := o.CountyStateKey, o.PeriodKey

		s.series[key] = append(s.series[key], o)

		periods, ok := s.byLocationPeriod[key]
		if !ok {
			periods = make(map[string]domain.NormalizedObservation)
			s.byLocationPeriod[key] = periods
		}
		cur, seen := periods[period]
		if !seen {
			periods[period] = o
			s.indexStateCounty(o.State, period, key)
		} else {
			if o.Cases > cur.Cases {
				cur.Cases = o.Cases
			}
			if o.Deaths > cur.Deaths {
				cur.Deaths = o.Deaths
			}
			if o.Date.After(cur.Date) {
				cur.Date = o.Date
			}
			if o.CasesPerThousand > cur.CasesPerThousand {
				cur.CasesPerThousand = o.CasesPerThousand
			}
			periods[period] = cur
		}

		if o.Date.After(s.periodMaxDate[period]) {
			s.periodMaxDate[period] = o.Date
		}
		if o.Date.After(s.latestDate) {
			s.latestDate = o.Date
		}
	}

	for key := range s.series {
		seq := s.series[key]
		sort.SliceStable(seq, func(i, j int) bool { return seq[i].Date.Before(seq[j].Date) })
	}
	for _, byPeriod := range s.stateCounties {
		for _, keys := range byPeriod {
			sort.Strings(keys)
		}
	}

	return s
}

func (s *Store) indexStateCounty(state, period, key string) {
	byPeriod, ok := s.stateCounties[state]
	if !ok {
		byPeriod = make(map[string][]string)
		s.stateCounties[state] = byPeriod
	}
	byPeriod[period] = append(byPeriod[period], key)
}

// Observation returns the period-maximum cumulative observation for a
// location, or false when the location has no rows in that period.
func (s *Store) Observation(key, period string) (domain.NormalizedObservation, bool) {
	o, ok := s.byLocationPeriod[key][period]
	return o, ok
}

// Series returns a location's full history in ascending date order. The
// returned slice is shared; callers must not mutate it.
func (s *Store) Series(key string) []domain.NormalizedObservation {
	return s.series[key]
}

// StateCounties returns one period-maximum observation per county recorded
// in the state during the period, in location-key order.
func (s *Store) StateCounties(state, period string) []domain.NormalizedObservation {
	keys := s.stateCounties[state][period]
	if len(keys) == 0 {
		return nil
	}
	out := make([]domain.NormalizedObservation, 0, len(keys))
	for _, key := range keys {
		if o, ok := s.byLocationPeriod[key][period]; ok {
			out = append(out, o)
		}
	}
	return out
}

// PeriodMaxDate returns the latest date any location reported within the
// period, across the whole dataset.
func (s *Store) PeriodMaxDate(period string) (time.Time, bool) {
	d, ok := s.periodMaxDate[period]
	return d, ok
}

// LatestDate returns the latest date in the dataset.
func (s *Store) LatestDate() time.Time {
	return s.latestDate
}

// Locations reports the number of distinct locations indexed.
func (s *Store) Locations() int {
	return len(s.series)
}
