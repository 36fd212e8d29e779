package dataset

import (
	"errors"
	"math"
	"time"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

// ErrDivisionUndefined marks a percent-change computation whose baseline is
// zero. Callers substitute a 0% display value rather than faulting.
var ErrDivisionUndefined = errors.New("percent change undefined: zero baseline")

// Delta is the per-row increment derived from consecutive cumulative counts.
type Delta struct {
	Date   time.Time
	Period string
	Cases  int
	Deaths int
}

// NewCounts derives per-row new counts from a date-ordered series by
// carrying the previous cumulative value through a single scan. The first
// row's new count is its cumulative count (baseline). Upstream corrections
// can make a delta negative; it is emitted as-is so period sums telescope
// exactly to the final cumulative value.
func NewCounts(series []domain.NormalizedObservation) []Delta {
	if len(series) == 0 {
		return nil
	}
	out := make([]Delta, len(series))
	prevCases, prevDeaths := 0, 0
	for i, o := range series {
		out[i] = Delta{
			Date:   o.Date,
			Period: o.PeriodKey,
			Cases:  o.Cases - prevCases,
			Deaths: o.Deaths - prevDeaths,
		}
		prevCases, prevDeaths = o.Cases, o.Deaths
	}
	return out
}

// PercentChange computes round2((new-old)/old*100). A zero baseline returns
// ErrDivisionUndefined instead of an arithmetic fault.
func PercentChange(newTotal, oldTotal int) (float64, error) {
	if oldTotal == 0 {
		return 0, ErrDivisionUndefined
	}
	return round2(float64(newTotal-oldTotal) / float64(oldTotal) * 100), nil
}

// CountySnapshot is the per-location answer for one period.
type CountySnapshot struct {
	CumulativeCases  int       `json:"cumulative_cases"`
	CumulativeDeaths int       `json:"cumulative_deaths"`
	PctChangeCases   float64   `json:"pct_change_cases"`
	PctChangeDeaths  float64   `json:"pct_change_deaths"`
	AsOfDate         time.Time `json:"as_of_date"`
}

// StateSnapshot totals a state's counties for one period.
type StateSnapshot struct {
	TotalCases  int `json:"total_cases"`
	TotalDeaths int `json:"total_deaths"`
}

// PeriodDelta is one chart point: a period's summed new counts.
type PeriodDelta struct {
	Period    string `json:"period"`
	NewCases  int    `json:"new_cases"`
	NewDeaths int    `json:"new_deaths"`
}

// Engine answers aggregate queries over the immutable store.
type Engine struct {
	store      *Store
	catalog    *domain.PeriodCatalog
	windowDays int
}

// NewEngine creates an engine with the given trailing-comparison window
// (days) for latest-period percent changes.
func NewEngine(store *Store, catalog *domain.PeriodCatalog, windowDays int) *Engine {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Engine{store: store, catalog: catalog, windowDays: windowDays}
}

// CountySnapshot computes cumulative totals and percent-change statistics
// for a location at a period ordinal.
//
// For the latest period the percent change compares the trailing window's
// new-count total against the window before it. For past periods the
// period's own new-count total is compared against the location's final
// cumulative total, operand roles reversed, expressing how far the period
// sat from the eventual total.
//
// A location absent from the store yields the explicit zero fallback: all
// counts 0 and the period's dataset-wide max date as the reference date.
func (e *Engine) CountySnapshot(key string, ordinal int) (CountySnapshot, error) {
	period, err := e.catalog.LabelFor(ordinal)
	if err != nil {
		return CountySnapshot{}, err
	}

	obs, ok := e.store.Observation(key, period)
	if !ok {
		asOf, _ := e.store.PeriodMaxDate(period)
		return CountySnapshot{AsOfDate: asOf}, nil
	}

	series := e.store.Series(key)
	deltas := NewCounts(series)

	var pctCases, pctDeaths float64
	if ordinal == e.catalog.Latest() {
		latest := series[len(series)-1].Date
		newC, newD := sumWindow(deltas, latest.AddDate(0, 0, -e.windowDays), latest)
		oldC, oldD := sumWindow(deltas, latest.AddDate(0, 0, -2*e.windowDays), latest.AddDate(0, 0, -e.windowDays))
		pctCases = pctOrZero(newC, oldC)
		pctDeaths = pctOrZero(newD, oldD)
	} else {
		periodC, periodD := sumPeriod(deltas, period)
		final := series[len(series)-1]
		pctCases = pctOrZero(periodC, final.Cases)
		pctDeaths = pctOrZero(periodD, final.Deaths)
	}

	return CountySnapshot{
		CumulativeCases:  obs.Cases,
		CumulativeDeaths: obs.Deaths,
		PctChangeCases:   pctCases,
		PctChangeDeaths:  pctDeaths,
		AsOfDate:         obs.Date,
	}, nil
}

// StateSnapshot sums, over every county recorded in the state during the
// period, that county's period-maximum cumulative values. Summing raw rows
// would double count counties reporting on several dates.
func (e *Engine) StateSnapshot(state string, ordinal int) (StateSnapshot, error) {
	period, err := e.catalog.LabelFor(ordinal)
	if err != nil {
		return StateSnapshot{}, err
	}
	var snap StateSnapshot
	for _, o := range e.store.StateCounties(state, period) {
		snap.TotalCases += o.Cases
		snap.TotalDeaths += o.Deaths
	}
	return snap, nil
}

// MonthlySeries groups a location's full history by period and sums new
// counts within each, deriving deltas across period boundaries from the
// uninterrupted date-ordered series. Unknown locations get a zero-filled
// series spanning the whole catalog so charts always render a full axis.
func (e *Engine) MonthlySeries(key string) []PeriodDelta {
	totals := make(map[string]*PeriodDelta)
	for _, d := range NewCounts(e.store.Series(key)) {
		pd, ok := totals[d.Period]
		if !ok {
			pd = &PeriodDelta{Period: d.Period}
			totals[d.Period] = pd
		}
		pd.NewCases += d.Cases
		pd.NewDeaths += d.Deaths
	}

	labels := e.catalog.Labels()
	out := make([]PeriodDelta, 0, len(labels))
	for _, label := range labels {
		if pd, ok := totals[label]; ok {
			out = append(out, *pd)
			continue
		}
		out = append(out, PeriodDelta{Period: label})
	}
	return out
}

// sumWindow totals deltas with start < date <= end.
func sumWindow(deltas []Delta, start, end time.Time) (cases, deaths int) {
	for _, d := range deltas {
		if d.Date.After(start) && !d.Date.After(end) {
			cases += d.Cases
			deaths += d.Deaths
		}
	}
	return cases, deaths
}

func sumPeriod(deltas []Delta, period string) (cases, deaths int) {
	for _, d := range deltas {
		if d.Period == period {
			cases += d.Cases
			deaths += d.Deaths
		}
	}
	return cases, deaths
}

// pctOrZero applies the DivisionUndefined fallback callers display as 0%.
func pctOrZero(newTotal, oldTotal int) float64 {
	pct, err := PercentChange(newTotal, oldTotal)
	if errors.Is(err, ErrDivisionUndefined) {
		return 0
	}
	return pct
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
