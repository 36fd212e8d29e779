package dataset

import (
	"time"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
)

// Period pairs a slider ordinal with its label.
type Period struct {
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
}

// CityResolution answers a city search: the containing county, its state,
// and the composite key the snapshot queries take.
type CityResolution struct {
	City           string `json:"city"`
	County         string `json:"county"`
	State          string `json:"state"`
	CountyStateKey string `json:"county_state_key"`
}

// Service is the query surface the presentation layer consumes: pure
// functions over the immutable dataset built at startup.
type Service struct {
	gazetteer *domain.Gazetteer
	catalog   *domain.PeriodCatalog
	store     *Store
	engine    *Engine
}

// NewService assembles the query surface from the built components.
func NewService(gaz *domain.Gazetteer, catalog *domain.PeriodCatalog, store *Store, engine *Engine) *Service {
	return &Service{gazetteer: gaz, catalog: catalog, store: store, engine: engine}
}

// Periods returns the full period catalog in ordinal order.
func (s *Service) Periods() []Period {
	labels := s.catalog.Labels()
	out := make([]Period, len(labels))
	for i, label := range labels {
		out[i] = Period{Ordinal: i + 1, Label: label}
	}
	return out
}

// LatestPeriod returns the most recent period, or a zero value for an empty
// dataset.
func (s *Service) LatestPeriod() Period {
	ord := s.catalog.Latest()
	if ord == 0 {
		return Period{}
	}
	label, _ := s.catalog.LabelFor(ord)
	return Period{Ordinal: ord, Label: label}
}

// ResolveCityQuery maps a city label to its county and the store's location
// key. Wraps domain.ErrNotFound for unknown cities.
func (s *Service) ResolveCityQuery(city string) (CityResolution, error) {
	info, err := s.gazetteer.ResolveCity(city)
	if err != nil {
		return CityResolution{}, err
	}
	return CityResolution{
		City:           info.City,
		County:         info.County,
		State:          info.State,
		CountyStateKey: domain.LocationKey(info.County, info.State),
	}, nil
}

// SuggestCities proposes near-miss city names for an unresolved query.
func (s *Service) SuggestCities(city string, limit int) []string {
	return s.gazetteer.SuggestCities(city, limit)
}

// CountySnapshot delegates to the aggregation engine.
func (s *Service) CountySnapshot(key string, ordinal int) (CountySnapshot, error) {
	return s.engine.CountySnapshot(key, ordinal)
}

// StateSnapshot delegates to the aggregation engine.
func (s *Service) StateSnapshot(state string, ordinal int) (StateSnapshot, error) {
	return s.engine.StateSnapshot(state, ordinal)
}

// MonthlySeries delegates to the aggregation engine.
func (s *Service) MonthlySeries(key string) []PeriodDelta {
	return s.engine.MonthlySeries(key)
}

// LatestDate returns the dataset-wide maximum date.
func (s *Service) LatestDate() time.Time {
	return s.store.LatestDate()
}
