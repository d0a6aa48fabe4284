package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// DefaultBatchSize bounds the number of messages per WriteMessages call.
const DefaultBatchSize = 500

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes clean records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer    messageWriter
	logger    *slog.Logger
	batchSize int
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, batchSize: DefaultBatchSize}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Load serializes every record of ds and publishes them in batches. Records
// of one city share a partition because the key starts with the city.
func (w *Writer) Load(ctx context.Context, ds domain.CleanDataset) error {
	if len(ds.Records) == 0 {
		return nil
	}
	processedAt := domain.Now().UTC()

	for start := 0; start < len(ds.Records); start += w.batchSize {
		end := min(start+w.batchSize, len(ds.Records))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, rec := range ds.Records[start:end] {
			msg, err := serializeToMessage(rec, processedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish records %d-%d: %w", start, end-1, err)
		}
		w.logger.Debug("kafka batch published", "records", len(msgs))
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CleanRecord into a Kafka message.
func serializeToMessage(rec domain.CleanRecord, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize clean record %s: %w", rec.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "city", Value: []byte(rec.City)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
