package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillhouse/agro-advisor/internal/domain"
	"github.com/tillhouse/agro-advisor/internal/observability"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]RawReading
	index   int
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]RawReading, error) {
	m.mu.Lock()
	if m.index < len(m.batches) {
		batch := m.batches[m.index]
		m.index++
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()

	// Block until context cancelled to simulate waiting for messages.
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockRecorder struct {
	mu       sync.Mutex
	readings []domain.SensorReading
	analyses []domain.Analysis
	err      error
	errOnce  bool
}

func (m *mockRecorder) RecordBatch(_ context.Context, readings []domain.SensorReading, analyses []domain.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		err := m.err
		if m.errOnce {
			m.err = nil
		}
		return err
	}
	m.readings = append(m.readings, readings...)
	m.analyses = append(m.analyses, analyses...)
	return nil
}

func (m *mockRecorder) recorded() ([]domain.SensorReading, []domain.Analysis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SensorReading(nil), m.readings...), append([]domain.Analysis(nil), m.analyses...)
}

func rawFor(t *testing.T, reading domain.SensorReading) RawReading {
	t.Helper()
	payload, err := json.Marshal(reading)
	require.NoError(t, err)
	return RawReading{Value: payload, Topic: "sensor-readings"}
}

func runPipeline(t *testing.T, ext BatchExtractor, rec Recorder) *Pipeline {
	t.Helper()
	p := New(ext, rec, slog.Default(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	return p
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	reading := domain.SensorReading{SoilMoisture: 40, Temperature: 38, Humidity: 70, CropType: "default"}
	ext := &mockExtractor{batches: [][]RawReading{{rawFor(t, reading)}}}
	rec := &mockRecorder{}

	p := runPipeline(t, ext, rec)

	readings, analyses := rec.recorded()
	require.Len(t, readings, 1)
	assert.Equal(t, 40.0, readings[0].SoilMoisture)
	assert.Equal(t, "Field-1", readings[0].Location, "defaults applied during decode")

	require.Len(t, analyses, 1)
	assert.Equal(t, domain.IrrigationWater, analyses[0].Irrigation.Action)
	assert.Equal(t, 7.5, analyses[0].Irrigation.Amount)

	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches — will block
	rec := &mockRecorder{}
	p := New(ext, rec, slog.Default(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	readings, _ := rec.recorded()
	assert.Empty(t, readings)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SkipsPoisonMessages(t *testing.T) {
	good := domain.SensorReading{SoilMoisture: 60, Temperature: 24, Humidity: 70, CropType: "corn"}
	outOfRange := domain.SensorReading{SoilMoisture: 150, Temperature: 24, Humidity: 70}

	var committedPoison bool
	poison := RawReading{Value: []byte("{not json"), Commit: func(context.Context) error {
		committedPoison = true
		return nil
	}}

	ext := &mockExtractor{batches: [][]RawReading{{poison, rawFor(t, outOfRange), rawFor(t, good)}}}
	rec := &mockRecorder{}

	runPipeline(t, ext, rec)

	readings, _ := rec.recorded()
	require.Len(t, readings, 1)
	assert.Equal(t, 60.0, readings[0].SoilMoisture)
	assert.True(t, committedPoison, "poison messages are committed so they are not redelivered")
}

func TestPipeline_Run_CommitsAfterPersist(t *testing.T) {
	commits := 0
	raw := rawFor(t, domain.SensorReading{SoilMoisture: 60, Temperature: 24, Humidity: 70})
	raw.Commit = func(context.Context) error {
		commits++
		return nil
	}

	ext := &mockExtractor{batches: [][]RawReading{{raw}}}
	rec := &mockRecorder{}

	runPipeline(t, ext, rec)

	assert.Equal(t, 1, commits)
}

func TestPipeline_Run_RetriesAfterPersistFailure(t *testing.T) {
	reading := domain.SensorReading{SoilMoisture: 60, Temperature: 24, Humidity: 70}
	// The same batch is offered twice: the first persist attempt fails, the
	// batch is redelivered (offsets were never committed), and the retry
	// succeeds.
	ext := &mockExtractor{batches: [][]RawReading{
		{rawFor(t, reading)},
		{rawFor(t, reading)},
	}}
	rec := &mockRecorder{err: errors.New("database locked"), errOnce: true}

	p := New(ext, rec, slog.Default(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	readings, _ := rec.recorded()
	assert.Len(t, readings, 1)
	assert.True(t, p.Ready())
}

func TestDecodeReading(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		raw := RawReading{Value: []byte(`{"soil_moisture":42.5,"temperature":21,"humidity":55,"location":"Field-3","crop_type":"wheat"}`)}
		reading, err := decodeReading(raw)

		require.NoError(t, err)
		assert.Equal(t, 42.5, reading.SoilMoisture)
		assert.Equal(t, "Field-3", reading.Location)
		assert.Equal(t, "wheat", reading.CropType)
	})

	t.Run("defaults applied", func(t *testing.T) {
		raw := RawReading{Value: []byte(`{"soil_moisture":42.5,"temperature":21,"humidity":55}`)}
		reading, err := decodeReading(raw)

		require.NoError(t, err)
		assert.Equal(t, "Field-1", reading.Location)
		assert.Equal(t, "default", reading.CropType)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := decodeReading(RawReading{Value: []byte("{invalid")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode reading")
	})

	t.Run("out of range", func(t *testing.T) {
		raw := RawReading{Value: []byte(`{"soil_moisture":101,"temperature":21,"humidity":55}`)}
		_, err := decodeReading(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validate reading")
	})
}
