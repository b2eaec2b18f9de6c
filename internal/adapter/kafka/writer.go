package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/voyage-emissions-service/internal/config"
	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the estimates in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, estimates []domain.VoyageEstimate) error {
	if len(estimates) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(estimates))
	for i := range estimates {
		msg, err := serializeToMessage(estimates[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

// Close flushes pending writes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an estimate into a Kafka message keyed by request id.
func serializeToMessage(est domain.VoyageEstimate) (kafkago.Message, error) {
	data, err := json.Marshal(est)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize voyage estimate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(est.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "method", Value: []byte(est.Distance.Method)},
			{Key: "estimated_at", Value: []byte(est.EstimatedAt.Format(time.RFC3339))},
		},
	}, nil
}
