// Package pipeline orchestrates the one-shot build of the immutable query
// dataset: read gazetteer, read time series, normalize with drop accounting,
// index, and optionally publish the normalized set to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-data-engine/internal/dataset"
	"github.com/couchcryptid/covid-data-engine/internal/domain"
	"github.com/couchcryptid/covid-data-engine/internal/observability"
)

// GazetteerSource reads the static city reference table.
type GazetteerSource interface {
	ReadGazetteer(ctx context.Context) ([]domain.GazetteerEntry, error)
}

// ObservationSource reads the raw county time series.
type ObservationSource interface {
	ReadObservations(ctx context.Context) ([]domain.RawObservation, error)
}

// Publisher writes normalized observations to a downstream sink.
type Publisher interface {
	PublishBatch(ctx context.Context, observations []domain.NormalizedObservation) error
}

// Options tune the build.
type Options struct {
	TrendWindowDays int
	BatchSize       int
}

// Loader builds the dataset once at startup. It doubles as the readiness
// checker for the HTTP server: not ready until the build completes.
type Loader struct {
	gazetteer    GazetteerSource
	observations ObservationSource
	publisher    Publisher // nil disables sink publishing
	logger       *slog.Logger
	metrics      *observability.Metrics
	opts         Options
	ready        atomic.Bool
}

// New creates a Loader. Pass a nil publisher to disable the sink.
func New(gaz GazetteerSource, obs ObservationSource, pub Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &Loader{
		gazetteer:    gaz,
		observations: obs,
		publisher:    pub,
		logger:       logger,
		metrics:      metrics,
		opts:         opts,
	}
}

// CheckReadiness returns nil once the dataset has been built.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("dataset has not been built yet")
	}
	return nil
}

// Build runs the full load and returns the query service over the built
// dataset. Individual unresolvable rows are dropped and counted, never
// fatal; source-level failures are.
func (l *Loader) Build(ctx context.Context) (*dataset.Service, error) {
	start := time.Now()

	entries, err := l.gazetteer.ReadGazetteer(ctx)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}
	gaz := domain.NewGazetteer(entries)
	l.metrics.GazetteerCities.Set(float64(gaz.Len()))

	raws, err := l.observations.ReadObservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}
	l.metrics.RowsConsumed.Add(float64(len(raws)))

	normalized := l.normalize(raws, gaz)
	l.metrics.RowsNormalized.Add(float64(len(normalized)))

	store := dataset.NewStore(normalized)
	catalog := domain.NewPeriodCatalog(normalized)
	engine := dataset.NewEngine(store, catalog, l.opts.TrendWindowDays)
	svc := dataset.NewService(gaz, catalog, store, engine)

	l.metrics.LocationsIndexed.Set(float64(store.Locations()))
	l.metrics.PeriodsLoaded.Set(float64(catalog.Len()))

	l.publish(ctx, normalized)

	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.metrics.DatasetReady.Set(1)
	l.ready.Store(true)

	l.logger.Info("dataset built",
		"rows", len(raws),
		"normalized", len(normalized),
		"dropped", len(raws)-len(normalized),
		"locations", store.Locations(),
		"periods", catalog.Len(),
		"duration", time.Since(start),
	)
	return svc, nil
}

// normalize converts raw rows, logging and counting drops by reason.
// Gazetteer misses on special-case cities are data-integrity warnings;
// unrecoverable locations are expected and logged at debug.
func (l *Loader) normalize(raws []domain.RawObservation, gaz *domain.Gazetteer) []domain.NormalizedObservation {
	out := make([]domain.NormalizedObservation, 0, len(raws))
	var remapErr *domain.RemapError

	for _, raw := range raws {
		obs, err := domain.Normalize(raw, gaz)
		switch {
		case err == nil:
			out = append(out, obs)
		case errors.As(err, &remapErr):
			l.logger.Warn("data integrity: special-case city unresolvable, row dropped",
				"city", remapErr.City,
				"state", remapErr.State,
				"date", raw.Date.Format("2006-01-02"),
				"error", remapErr.Err,
			)
			l.metrics.RowsDropped.WithLabelValues("gazetteer_miss").Inc()
		default:
			l.logger.Debug("row dropped, no resolvable location",
				"county", raw.County,
				"state", raw.State,
				"date", raw.Date.Format("2006-01-02"),
			)
			l.metrics.RowsDropped.WithLabelValues("no_location").Inc()
		}
	}
	return out
}

// publish streams the normalized set to the sink in batches. Sink failures
// degrade the pipeline to log-and-count; the query surface still comes up.
func (l *Loader) publish(ctx context.Context, observations []domain.NormalizedObservation) {
	if l.publisher == nil {
		return
	}
	for start := 0; start < len(observations); start += l.opts.BatchSize {
		end := start + l.opts.BatchSize
		if end > len(observations) {
			end = len(observations)
		}
		batch := observations[start:end]
		if err := l.publisher.PublishBatch(ctx, batch); err != nil {
			l.logger.Error("publish batch failed", "error", err, "batch_size", len(batch))
			l.metrics.PublishErrors.Inc()
			continue
		}
		l.metrics.ObservationsPublished.Add(float64(len(batch)))
	}
}
