package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-data-engine/internal/config"
	"github.com/couchcryptid/covid-data-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces normalized observations to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes multiple observations to the sink
// topic in a single WriteMessages call for efficiency.
func (w *Writer) PublishBatch(ctx context.Context, observations []domain.NormalizedObservation) error {
	if len(observations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(observations))
	for i := range observations {
		msg, err := serializeToMessage(observations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an observation into a Kafka message. The key
// is location plus date so per-location ordering survives partitioning by key.
func serializeToMessage(o domain.NormalizedObservation) (kafkago.Message, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.CountyStateKey + "|" + o.Date.Format("2006-01-02")),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "period", Value: []byte(o.PeriodKey)},
			{Key: "fips", Value: []byte(o.FIPS)},
			{Key: "processed_at", Value: []byte(o.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
