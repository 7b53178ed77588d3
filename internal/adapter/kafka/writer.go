package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/tillhouse/agro-advisor/internal/config"
	"github.com/tillhouse/agro-advisor/internal/domain"
)

// Writer publishes sensor readings to the source topic. Field gateways use
// it to feed the ingest pipeline; the seed tool uses it to simulate them.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured source topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSourceTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes multiple readings in a single
// WriteMessages call for efficiency.
func (w *Writer) PublishBatch(ctx context.Context, readings []domain.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(readings))
	for i := range readings {
		msg, err := serializeToMessage(readings[i])
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

// serializeToMessage marshals a SensorReading into a Kafka message keyed by
// location so readings from one field stay on one partition.
func serializeToMessage(reading domain.SensorReading) (kafkago.Message, error) {
	data, err := json.Marshal(reading)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sensor reading: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(reading.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "crop_type", Value: []byte(reading.CropType)},
		},
	}, nil
}
