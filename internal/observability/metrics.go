package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// load pipeline and query surface.
type Metrics struct {
	// Load pipeline metrics.
	RowsConsumed     prometheus.Counter
	RowsNormalized   prometheus.Counter
	RowsDropped      *prometheus.CounterVec // labels: reason={no_location,gazetteer_miss}
	GazetteerCities  prometheus.Gauge
	LocationsIndexed prometheus.Gauge
	PeriodsLoaded    prometheus.Gauge
	LoadDuration     prometheus.Histogram
	DatasetReady     prometheus.Gauge

	// Sink publishing metrics.
	ObservationsPublished prometheus.Counter
	PublishErrors         prometheus.Counter

	// Query metrics.
	Queries       *prometheus.CounterVec   // labels: endpoint, outcome={ok,not_found,bad_request}
	QueryDuration *prometheus.HistogramVec // labels: endpoint
	SnapshotCache *prometheus.CounterVec   // labels: query={county,state,series}, result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "rows_consumed_total",
			Help:      "Total raw time-series rows read from the source file.",
		}),
		RowsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "rows_normalized_total",
			Help:      "Total rows that survived location normalization.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped during normalization, by reason.",
		}, []string{"reason"}),
		GazetteerCities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_engine",
			Name:      "gazetteer_cities",
			Help:      "Distinct cities indexed from the gazetteer.",
		}),
		LocationsIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_engine",
			Name:      "locations_indexed",
			Help:      "Distinct county-state locations in the store.",
		}),
		PeriodsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_engine",
			Name:      "periods_loaded",
			Help:      "Calendar-month periods in the catalog.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_engine",
			Name:      "load_duration_seconds",
			Help:      "Duration of the complete load-normalize-index build.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		DatasetReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_engine",
			Name:      "dataset_ready",
			Help:      "1 once the immutable dataset is built and queryable.",
		}),
		ObservationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "observations_published_total",
			Help:      "Normalized observations published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "publish_errors_total",
			Help:      "Failed sink publish batches.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "queries_total",
			Help:      "Query API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covid_engine",
			Name:      "query_duration_seconds",
			Help:      "Query handling duration in seconds.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),
		SnapshotCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_engine",
			Name:      "snapshot_cache_total",
			Help:      "Snapshot cache lookups by query and result.",
		}, []string{"query", "result"}),
	}

	prometheus.MustRegister(
		m.RowsConsumed,
		m.RowsNormalized,
		m.RowsDropped,
		m.GazetteerCities,
		m.LocationsIndexed,
		m.PeriodsLoaded,
		m.LoadDuration,
		m.DatasetReady,
		m.ObservationsPublished,
		m.PublishErrors,
		m.Queries,
		m.QueryDuration,
		m.SnapshotCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsConsumed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_engine", Name: "rows_consumed_total"}),
		RowsNormalized:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_engine", Name: "rows_normalized_total"}),
		RowsDropped:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_engine", Name: "rows_dropped_total"}, []string{"reason"}),
		GazetteerCities:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_engine", Name: "gazetteer_cities"}),
		LocationsIndexed:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_engine", Name: "locations_indexed"}),
		PeriodsLoaded:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_engine", Name: "periods_loaded"}),
		LoadDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "covid_engine", Name: "load_duration_seconds"}),
		DatasetReady:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_engine", Name: "dataset_ready"}),
		ObservationsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_engine", Name: "observations_published_total"}),
		PublishErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_engine", Name: "publish_errors_total"}),
		Queries:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_engine", Name: "queries_total"}, []string{"endpoint", "outcome"}),
		QueryDuration:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "covid_engine", Name: "query_duration_seconds"}, []string{"endpoint"}),
		SnapshotCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_engine", Name: "snapshot_cache_total"}, []string{"query", "result"}),
	}
}
