//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/covid-data-engine/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-engine/internal/config"
	"github.com/couchcryptid/covid-data-engine/internal/domain"
	"github.com/couchcryptid/covid-data-engine/internal/observability"
	"github.com/couchcryptid/covid-data-engine/internal/pipeline"
)

const testSinkTopic = "test-normalized-observations"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic pre-creates a topic so the first produce does not race topic
// auto-creation.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type mockGazetteerSource struct{ entries []domain.GazetteerEntry }

func (m *mockGazetteerSource) ReadGazetteer(_ context.Context) ([]domain.GazetteerEntry, error) {
	return m.entries, nil
}

type mockObservationSource struct{ raws []domain.RawObservation }

func (m *mockObservationSource) ReadObservations(_ context.Context) ([]domain.RawObservation, error) {
	return m.raws, nil
}

// TestPublishNormalizedObservations wires the loader with a real Kafka sink
// and verifies normalized rows arrive on the topic with location keys and
// headers intact.
func TestPublishNormalizedObservations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	mar := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)
	loader := pipeline.New(
		&mockGazetteerSource{entries: []domain.GazetteerEntry{
			{City: "Kansas City", StateAbbr: "MO", StateName: "Missouri", CountyName: "Jackson", CountyFIPS: "29095"},
			{City: "Austin", StateAbbr: "TX", StateName: "Texas", CountyName: "Travis", CountyFIPS: "48453"},
		}},
		&mockObservationSource{raws: []domain.RawObservation{
			{Date: mar, County: "Travis", State: "Texas", FIPS: "48453", Cases: 10, Deaths: 0},
			{Date: mar, County: "Kansas City", State: "Missouri", Cases: 5, Deaths: 1},
			{Date: mar, County: "Unknown", State: "Texas", Cases: 3, Deaths: 0},
		}},
		writer,
		discardLogger(),
		observability.NewMetricsForTesting(),
		pipeline.Options{TrendWindowDays: 7, BatchSize: 10},
	)

	_, err := loader.Build(ctx)
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byKey := make(map[string]domain.NormalizedObservation, 2)
	for len(byKey) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		var obs domain.NormalizedObservation
		require.NoError(t, json.Unmarshal(msg.Value, &obs))
		byKey[string(msg.Key)] = obs

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, obs.PeriodKey, headers["period"])
		assert.Equal(t, obs.FIPS, headers["fips"])
		_, err = time.Parse(time.RFC3339, headers["processed_at"])
		assert.NoError(t, err, "processed_at should be valid RFC3339")
	}

	travis, ok := byKey["Travis, Texas|2020-03-15"]
	require.True(t, ok, "Travis row published under its location key")
	assert.Equal(t, 10, travis.Cases)

	jackson, ok := byKey["Jackson, Missouri|2020-03-15"]
	require.True(t, ok, "Kansas City row published under its remapped county")
	assert.Equal(t, "29095", jackson.FIPS)
	assert.Equal(t, 5, jackson.Cases)

	// The Unknown row was dropped, so exactly two messages exist.
	shortCtx, shortCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shortCancel()
	_, err = consumer.ReadMessage(shortCtx)
	assert.Error(t, err, "no third message expected")
}
