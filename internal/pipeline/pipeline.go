// Package pipeline runs the Kafka ingest loop: batches of raw sensor
// readings are decoded, run through the decision engine, and persisted
// together with their recommendations.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tillhouse/agro-advisor/internal/domain"
	"github.com/tillhouse/agro-advisor/internal/observability"
)

// BatchExtractor reads up to batchSize raw readings from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]RawReading, error)
}

// Recorder persists reading/analysis pairs atomically.
type Recorder interface {
	RecordBatch(ctx context.Context, readings []domain.SensorReading, analyses []domain.Analysis) error
}

// Pipeline orchestrates the extract-analyze-persist loop.
type Pipeline struct {
	extractor BatchExtractor
	recorder  Recorder
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, r Recorder, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		recorder:  r,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Ready reports whether the pipeline has persisted at least one reading.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil once the pipeline has persisted at least one
// reading, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("ingest pipeline has not persisted any readings yet")
	}
	return nil
}

// Run executes the ingest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("ingest pipeline started", "batch_size", p.batchSize)
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-analyze-persist cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.IngestBatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	persisted, ok := p.analyzeAndPersist(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if persisted > 0 {
		p.metrics.IngestBatchCycle.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// analyzeAndPersist decodes each message in the batch, runs the decision
// engine over the survivors, persists readings and recommendations in one
// transaction, and commits offsets. Returns the number of persisted readings
// and false if the pipeline should stop.
func (p *Pipeline) analyzeAndPersist(ctx context.Context, rawBatch []RawReading, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	readings := make([]domain.SensorReading, 0, len(rawBatch))
	analyses := make([]domain.Analysis, 0, len(rawBatch))
	decoded := make([]RawReading, 0, len(rawBatch))

	for _, raw := range rawBatch {
		reading, err := decodeReading(raw)
		if err != nil {
			p.logger.Warn("skipping undecodable reading",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.DecodeErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}

		analysis := domain.Analyze(reading, reading.CropType)
		p.metrics.AnalysesPerformed.Inc()
		p.metrics.Recommendations.WithLabelValues(string(analysis.Alerts.Level)).Inc()

		readings = append(readings, reading)
		analyses = append(analyses, analysis)
		decoded = append(decoded, raw)
	}

	if len(readings) == 0 {
		return 0, true
	}

	if err := p.recorder.RecordBatch(ctx, readings, analyses); err != nil {
		p.logger.Error("persist batch failed", "error", err, "batch_size", len(readings))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ReadingsIngested.Add(float64(len(readings)))

	for _, raw := range decoded {
		p.commitOffset(ctx, raw)
	}

	return len(readings), true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw RawReading) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
