package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(county, state string, date time.Time, cases, deaths int) domain.NormalizedObservation {
	return domain.NormalizedObservation{
		Date:             date,
		County:           county,
		State:            state,
		Cases:            cases,
		Deaths:           deaths,
		CountyStateKey:   domain.LocationKey(county, state),
		PeriodKey:        domain.PeriodOf(date),
		CasesPerThousand: float64(cases) / 1000,
	}
}

func TestStorePeriodMaximum(t *testing.T) {
	s := NewStore([]domain.NormalizedObservation{
		obs("Jackson", "Missouri", day(2020, time.March, 10), 100, 2),
		obs("Jackson", "Missouri", day(2020, time.March, 25), 150, 5),
	})

	o, ok := s.Observation("Jackson, Missouri", "Mar, 2020")
	require.True(t, ok)
	assert.Equal(t, 150, o.Cases, "period value is the maximum, never a sum")
	assert.Equal(t, 5, o.Deaths)
	assert.Equal(t, day(2020, time.March, 25), o.Date)
}

func TestStorePeriodMaximumFieldWise(t *testing.T) {
	// Out-of-order input with a same-day correction: each field takes its own
	// maximum independently.
	s := NewStore([]domain.NormalizedObservation{
		obs("Jackson", "Missouri", day(2020, time.March, 25), 150, 3),
		obs("Jackson", "Missouri", day(2020, time.March, 10), 100, 5),
	})

	o, ok := s.Observation("Jackson, Missouri", "Mar, 2020")
	require.True(t, ok)
	assert.Equal(t, 150, o.Cases)
	assert.Equal(t, 5, o.Deaths)
	assert.Equal(t, day(2020, time.March, 25), o.Date)
}

func TestStoreSeriesOrder(t *testing.T) {
	s := NewStore([]domain.NormalizedObservation{
		obs("Jackson", "Missouri", day(2020, time.April, 2), 200, 6),
		obs("Jackson", "Missouri", day(2020, time.March, 10), 100, 2),
		obs("Jackson", "Missouri", day(2020, time.March, 25), 150, 5),
	})

	series := s.Series("Jackson, Missouri")
	require.Len(t, series, 3)
	for i := 1; i < len(series); i++ {
		assert.False(t, series[i].Date.Before(series[i-1].Date), "series must be date-ascending")
	}
	assert.Equal(t, 100, series[0].Cases)
	assert.Equal(t, 200, series[2].Cases)
}

func TestStoreStateCounties(t *testing.T) {
	s := NewStore([]domain.NormalizedObservation{
		obs("Jackson", "Missouri", day(2020, time.March, 10), 100, 2),
		obs("Jackson", "Missouri", day(2020, time.March, 25), 150, 5),
		obs("Jasper", "Missouri", day(2020, time.March, 20), 40, 1),
		obs("Travis", "Texas", day(2020, time.March, 18), 90, 0),
		obs("Jasper", "Missouri", day(2020, time.April, 1), 55, 1),
	})

	t.Run("one entry per county at its period maximum", func(t *testing.T) {
		counties := s.StateCounties("Missouri", "Mar, 2020")
		require.Len(t, counties, 2)
		assert.Equal(t, "Jackson, Missouri", counties[0].CountyStateKey)
		assert.Equal(t, 150, counties[0].Cases)
		assert.Equal(t, "Jasper, Missouri", counties[1].CountyStateKey)
		assert.Equal(t, 40, counties[1].Cases)
	})

	t.Run("county missing from a later period", func(t *testing.T) {
		counties := s.StateCounties("Missouri", "Apr, 2020")
		require.Len(t, counties, 1)
		assert.Equal(t, "Jasper, Missouri", counties[0].CountyStateKey)
	})

	t.Run("unknown state", func(t *testing.T) {
		assert.Nil(t, s.StateCounties("Wyoming", "Mar, 2020"))
	})
}

func TestStoreDates(t *testing.T) {
	s := NewStore([]domain.NormalizedObservation{
		obs("Jackson", "Missouri", day(2020, time.March, 25), 150, 5),
		obs("Travis", "Texas", day(2020, time.March, 31), 90, 0),
		obs("Travis", "Texas", day(2020, time.April, 14), 120, 1),
	})

	maxMar, ok := s.PeriodMaxDate("Mar, 2020")
	require.True(t, ok)
	assert.Equal(t, day(2020, time.March, 31), maxMar, "dataset-wide period max, not per location")

	_, ok = s.PeriodMaxDate("May, 2020")
	assert.False(t, ok)

	assert.Equal(t, day(2020, time.April, 14), s.LatestDate())
	assert.Equal(t, 2, s.Locations())
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore(nil)
	_, ok := s.Observation("Jackson, Missouri", "Mar, 2020")
	assert.False(t, ok)
	assert.Nil(t, s.Series("Jackson, Missouri"))
	assert.Zero(t, s.Locations())
	assert.True(t, s.LatestDate().IsZero())
}
