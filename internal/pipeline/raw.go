package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tillhouse/agro-advisor/internal/domain"
)

// RawReading is an unprocessed message from the sensor readings topic.
type RawReading struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// decodeReading deserializes and validates a raw message. Gateways publish
// flat JSON matching domain.SensorReading; anything that fails decoding or
// range validation is a poison message to be skipped.
func decodeReading(raw RawReading) (domain.SensorReading, error) {
	var reading domain.SensorReading
	if err := json.Unmarshal(raw.Value, &reading); err != nil {
		return reading, fmt.Errorf("decode reading: %w", err)
	}
	reading = reading.WithDefaults()
	if err := reading.Validate(); err != nil {
		return reading, fmt.Errorf("validate reading: %w", err)
	}
	return reading, nil
}
