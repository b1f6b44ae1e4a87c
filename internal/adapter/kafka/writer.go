package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/issue-locator/internal/config"
	"github.com/couchcryptid/issue-locator/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces lookup events to a Kafka topic.
// It implements domain.LookupPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured lookup topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaLookupTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishLookup serializes one lookup event and writes it synchronously.
func (w *Writer) PublishLookup(ctx context.Context, event domain.LookupEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write lookup event %s: %w", event.ID, err)
	}
	w.logger.Debug("lookup event published", "event_id", event.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LookupEvent into a Kafka message keyed by its ID.
func serializeToMessage(event domain.LookupEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize lookup event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "provider", Value: []byte(event.Provider)},
			{Key: "resolved_at", Value: []byte(event.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
