package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/observability"
	"github.com/google/uuid"
)

// BatchExtractor reads up to batchSize raw records from the source. It
// returns io.EOF, possibly together with a final partial batch, once the
// source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// SegmentReporter is implemented by extractors that segment lines themselves
// and can report what the segmenter saw.
type SegmentReporter interface {
	SegmentStats() domain.SegmentStats
}

// Transformer assembles one raw record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRecord) domain.Outcome
}

// BatchLoader writes accepted records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.NormalizedRecord) error
}

const (
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
	maxLoadAttempts = 5
)

// Pipeline orchestrates one extract-transform-load pass over an input.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	last        atomic.Pointer[Report]
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent completed run.
func (p *Pipeline) LastReport() (Report, bool) {
	r := p.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Run reads the whole input, assembles every raw record and loads the
// accepted ones. Per-record failures never stop the run; it fails only when
// the input cannot be read, the loader keeps failing, or ctx is cancelled.
// The returned report reflects everything processed before a failure.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := newReport(uuid.NewString(), clock.Now())
	p.logger.Info("pipeline started", "run_id", report.RunID, "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	err := p.runBatches(ctx, &report)

	if sr, ok := p.extractor.(SegmentReporter); ok {
		report.applySegmentStats(sr.SegmentStats())
	}
	report.FinishedAt = clock.Now()
	p.metrics.RunDuration.Set(report.Duration().Seconds())

	if err != nil {
		p.logger.Error("pipeline failed", "run_id", report.RunID, "error", err)
		return report, err
	}

	p.last.Store(&report)
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "report", report)
	return report, nil
}

func (p *Pipeline) runBatches(ctx context.Context, report *Report) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := clock.Now()
		rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		done := errors.Is(err, io.EOF)
		if err != nil && !done {
			return fmt.Errorf("extract batch: %w", err)
		}

		if len(rawBatch) > 0 {
			p.metrics.BatchSize.Observe(float64(len(rawBatch)))
			if err := p.transformAndLoad(ctx, rawBatch, report); err != nil {
				return err
			}
			p.metrics.BatchProcessingDuration.Observe(clock.Since(start).Seconds())
		}

		if done {
			return nil
		}
	}
}

// transformAndLoad assembles each raw record in order and loads the
// accepted ones as one batch.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawRecord, report *Report) error {
	outBatch := make([]domain.NormalizedRecord, 0, len(rawBatch))

	for _, raw := range rawBatch {
		out := p.safeTransform(ctx, raw)
		p.observe(out, report)
		if out.Accepted() {
			outBatch = append(outBatch, out.Record)
		}
	}

	if len(outBatch) == 0 {
		return nil
	}
	if err := p.loadWithRetry(ctx, outBatch); err != nil {
		return err
	}
	p.metrics.RecordsLoaded.Add(float64(len(outBatch)))
	return nil
}

// safeTransform converts a panic while assembling one record into a drop so
// the rest of the input is still processed.
func (p *Pipeline) safeTransform(ctx context.Context, raw domain.RawRecord) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Dropped(raw.Ordinal, domain.SerialOf(raw.Fields), domain.DropInternal, fmt.Errorf("panic: %v", r))
		}
	}()
	return p.transformer.Transform(ctx, raw)
}

func (p *Pipeline) observe(out domain.Outcome, report *Report) {
	report.record(out)
	p.metrics.RecordsSegmented.Inc()

	for _, fb := range out.Fallbacks {
		p.metrics.Fallbacks.WithLabelValues(string(fb.Kind)).Inc()
		p.logger.Warn("field replaced by default",
			"record", out.Ordinal,
			"serial", out.Serial,
			"field", fb.Field,
			"kind", string(fb.Kind),
			"error", fb.Err,
		)
	}

	if out.Accepted() {
		p.metrics.RecordsAccepted.Inc()
		return
	}
	p.metrics.RecordsDropped.WithLabelValues(string(out.Drop.Reason)).Inc()
	p.logger.Warn("record dropped",
		"record", out.Ordinal,
		"serial", out.Serial,
		"reason", string(out.Drop.Reason),
		"error", out.Drop.Err,
	)
}

func (p *Pipeline) loadWithRetry(ctx context.Context, batch []domain.NormalizedRecord) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		if err = p.loader.LoadBatch(ctx, batch); err == nil {
			return nil
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "attempt", attempt)
		if attempt == maxLoadAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load batch: %w", err)
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

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
