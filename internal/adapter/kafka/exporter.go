// Package kafka publishes scored results to a Kafka topic for downstream
// consumers (analytics, caching layers). The exporter is optional and
// feature-flagged; when disabled the engine runs without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/atmoslabs/comfort-engine/internal/domain"
)

// messageWriter is the subset of kafka-go's Writer the exporter needs,
// extracted so tests can capture messages without a broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Exporter publishes comfort results to the configured results topic.
// It implements engine.ResultExporter.
type Exporter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewExporter creates a Kafka producer for the results topic.
func NewExporter(brokers []string, topic string, logger *slog.Logger) *Exporter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Exporter{writer: w, logger: logger}
}

// Export serializes and publishes one scored result. The message key groups
// results for the same coordinate and day onto the same partition.
func (e *Exporter) Export(ctx context.Context, result domain.ComfortResult) error {
	msg, err := serializeResult(result)
	if err != nil {
		return err
	}
	return e.writer.WriteMessages(ctx, msg)
}

func (e *Exporter) Close() error {
	return e.writer.Close()
}

// serializeResult marshals a ComfortResult into a Kafka message.
func serializeResult(result domain.ComfortResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize comfort result: %w", err)
	}

	mode := "point"
	if result.Region != nil {
		mode = "region"
	}

	key := fmt.Sprintf("%.4f,%.4f|%02d-%02d",
		result.Coord.Lat, result.Coord.Lon, result.Day.Month, result.Day.Day)

	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(mode)},
			{Key: "evaluated_at", Value: []byte(result.EvaluatedAt.Format(time.RFC3339))},
		},
	}, nil
}
