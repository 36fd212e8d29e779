package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/covid-data-engine/internal/domain"
	"github.com/couchcryptid/covid-data-engine/internal/observability"
)

type mockGazetteerSource struct {
	entries []domain.GazetteerEntry
	err     error
}

func (m *mockGazetteerSource) ReadGazetteer(_ context.Context) ([]domain.GazetteerEntry, error) {
	return m.entries, m.err
}

type mockObservationSource struct {
	raws []domain.RawObservation
	err  error
}

func (m *mockObservationSource) ReadObservations(_ context.Context) ([]domain.RawObservation, error) {
	return m.raws, m.err
}

type mockPublisher struct {
	batches [][]domain.NormalizedObservation
	err     error
}

func (m *mockPublisher) PublishBatch(_ context.Context, batch []domain.NormalizedObservation) error {
	if m.err != nil {
		return m.err
	}
	copied := make([]domain.NormalizedObservation, len(batch))
	copy(copied, batch)
	m.batches = append(m.batches, copied)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGazetteerEntries() []domain.GazetteerEntry {
	return []domain.GazetteerEntry{
		{City: "Kansas City", StateAbbr: "MO", StateName: "Missouri", CountyName: "Jackson", CountyFIPS: "29095"},
		{City: "Austin", StateAbbr: "TX", StateName: "Texas", CountyName: "Travis", CountyFIPS: "48453"},
	}
}

func testRawRows() []domain.RawObservation {
	mar := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)
	return []domain.RawObservation{
		{Date: mar, County: "Travis", State: "Texas", FIPS: "48453", Cases: 10, Deaths: 0},
		{Date: mar, County: "Kansas City", State: "Missouri", FIPS: "", Cases: 5, Deaths: 1},
		{Date: mar, County: "Unknown", State: "Texas", FIPS: "", Cases: 3, Deaths: 0},
	}
}

func TestLoaderBuild(t *testing.T) {
	loader := New(
		&mockGazetteerSource{entries: testGazetteerEntries()},
		&mockObservationSource{raws: testRawRows()},
		nil,
		testLogger(),
		observability.NewMetricsForTesting(),
		Options{TrendWindowDays: 7},
	)

	svc, err := loader.Build(context.Background())
	require.NoError(t, err)

	periods := svc.Periods()
	require.Len(t, periods, 1)
	assert.Equal(t, "Mar, 2020", periods[0].Label)

	snap, err := svc.CountySnapshot("Jackson, Missouri", 1)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.CumulativeCases, "remapped city row is indexed under its county")

	// The Unknown row must not surface anywhere.
	series := svc.MonthlySeries("Unknown, Texas")
	require.Len(t, series, 1)
	assert.Zero(t, series[0].NewCases)
}

func TestLoaderReadiness(t *testing.T) {
	loader := New(
		&mockGazetteerSource{entries: testGazetteerEntries()},
		&mockObservationSource{raws: testRawRows()},
		nil,
		testLogger(),
		observability.NewMetricsForTesting(),
		Options{},
	)

	require.Error(t, loader.CheckReadiness(context.Background()), "not ready before Build")

	_, err := loader.Build(context.Background())
	require.NoError(t, err)

	assert.NoError(t, loader.CheckReadiness(context.Background()))
}

func TestLoaderSourceFailures(t *testing.T) {
	t.Run("gazetteer read fails", func(t *testing.T) {
		loader := New(
			&mockGazetteerSource{err: errors.New("no such file")},
			&mockObservationSource{},
			nil,
			testLogger(),
			observability.NewMetricsForTesting(),
			Options{},
		)
		_, err := loader.Build(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "build dataset")
		assert.Error(t, loader.CheckReadiness(context.Background()))
	})

	t.Run("time series read fails", func(t *testing.T) {
		loader := New(
			&mockGazetteerSource{entries: testGazetteerEntries()},
			&mockObservationSource{err: errors.New("no such file")},
			nil,
			testLogger(),
			observability.NewMetricsForTesting(),
			Options{},
		)
		_, err := loader.Build(context.Background())
		require.Error(t, err)
	})
}

func TestLoaderPublishesBatches(t *testing.T) {
	pub := &mockPublisher{}
	loader := New(
		&mockGazetteerSource{entries: testGazetteerEntries()},
		&mockObservationSource{raws: testRawRows()},
		pub,
		testLogger(),
		observability.NewMetricsForTesting(),
		Options{BatchSize: 1},
	)

	_, err := loader.Build(context.Background())
	require.NoError(t, err)

	// Three raw rows, one dropped: two normalized observations in two
	// single-row batches.
	require.Len(t, pub.batches, 2)
	assert.Len(t, pub.batches[0], 1)
	assert.Len(t, pub.batches[1], 1)
}

func TestLoaderPublishFailureIsNotFatal(t *testing.T) {
	loader := New(
		&mockGazetteerSource{entries: testGazetteerEntries()},
		&mockObservationSource{raws: testRawRows()},
		&mockPublisher{err: errors.New("broker unreachable")},
		testLogger(),
		observability.NewMetricsForTesting(),
		Options{},
	)

	svc, err := loader.Build(context.Background())
	require.NoError(t, err, "sink failures degrade, never block the query surface")
	require.NotNil(t, svc)
	assert.NoError(t, loader.CheckReadiness(context.Background()))
}
