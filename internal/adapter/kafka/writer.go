package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/sfaf-etl/internal/config"
	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes normalized records to a Kafka topic, one message per
// record keyed by agency serial number.
type Writer struct {
	writer  messageWriter
	topic   string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaSinkTopic, logger: logger, metrics: metrics}
}

// LoadBatch serializes and publishes the records in a single WriteMessages
// call. Records sharing a serial land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", w.topic, err)
	}
	w.metrics.RecordsPublished.Add(float64(len(msgs)))
	w.logger.Debug("records published", "topic", w.topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func (w *Writer) String() string { return "kafka:" + w.topic }

// serializeToMessage marshals a NormalizedRecord into a Kafka message.
func serializeToMessage(rec domain.NormalizedRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %q: %w", rec.AgencySerial, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.AgencySerial),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "agency", Value: []byte(rec.Agency)},
			{Key: "center_frequency", Value: []byte(strconv.FormatFloat(rec.CenterFrequency, 'f', -1, 64))},
		},
	}, nil
}
