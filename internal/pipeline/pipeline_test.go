package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/observability"
	"github.com/couchcryptid/sfaf-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	records []domain.RawRecord
	pos     int
	err     error
}

func (m *mockExtractor) ExtractBatch(_ context.Context, n int) ([]domain.RawRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	end := min(m.pos+n, len(m.records))
	batch := m.records[m.pos:end]
	m.pos = end
	if m.pos == len(m.records) {
		return batch, io.EOF
	}
	return batch, nil
}

func (m *mockExtractor) SegmentStats() domain.SegmentStats {
	return domain.SegmentStats{Lines: 42, Opened: len(m.records), Emitted: len(m.records), Malformed: 2, Implicit: 1}
}

type panickyTransformer struct {
	inner    pipeline.Transformer
	panicOn  int
	observed []int
}

func (p *panickyTransformer) Transform(ctx context.Context, raw domain.RawRecord) domain.Outcome {
	p.observed = append(p.observed, raw.Ordinal)
	if raw.Ordinal == p.panicOn {
		panic("boom")
	}
	return p.inner.Transform(ctx, raw)
}

type mockLoader struct {
	loaded   []domain.NormalizedRecord
	batches  int
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.NormalizedRecord) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("sink unavailable")
	}
	m.batches++
	m.loaded = append(m.loaded, records...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func rawRecord(ordinal int, serial, freq, designator string) domain.RawRecord {
	fields := domain.RawFieldRecord{
		domain.LabelAgencySerial:         serial,
		domain.LabelTxAntennaCoordinates: "395900N0222630E",
	}
	if freq != "" {
		fields[domain.LabelFrequency] = freq
	}
	if designator != "" {
		fields[domain.IndexedKey(domain.LabelEmissionDesignator, 1)] = designator
	}
	return domain.RawRecord{Ordinal: ordinal, Fields: fields}
}

func sampleRecords() []domain.RawRecord {
	return []domain.RawRecord{
		rawRecord(1, "AF 1", "M138.025", "16K0F3E"),
		rawRecord(2, "AF 2", "M138.025-M140.000", "16K0F3E"),
		rawRecord(3, "AF 3", "M243", ""),
		rawRecord(4, "AF 4", "K4500", "???"),
		rawRecord(5, "AF 5", "G2.5", "2M00G7W"),
	}
}

// --- tests ---

func TestPipeline_Run_AcceptedAndDropped(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	pipeline.SetClock(fakeClock)
	t.Cleanup(func() { pipeline.SetClock(nil) })

	ext := &mockExtractor{records: sampleRecords()}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(ext, pipeline.NewTransformer(nil, nil, discardLogger()), ldr, discardLogger(), metrics, 2)

	require.Error(t, p.CheckReadiness(context.Background()))

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ldr.loaded, 3)
	assert.Equal(t, []string{"AF 1", "AF 4", "AF 5"}, []string{ldr.loaded[0].AgencySerial, ldr.loaded[1].AgencySerial, ldr.loaded[2].AgencySerial})
	assert.Equal(t, 3, ldr.batches)

	assert.Equal(t, 5, report.RecordsSegmented)
	assert.Equal(t, 3, report.Accepted)
	assert.Equal(t, 2, report.Dropped)
	assert.Equal(t, 1, report.DroppedByReason[domain.DropZeroFrequency])
	assert.Equal(t, 1, report.DroppedByReason[domain.DropMissingEmissionDesignator])
	assert.Equal(t, 1, report.Fallbacks[domain.FallbackBandwidth])
	assert.Equal(t, 42, report.LinesScanned)
	assert.Equal(t, 2, report.MalformedLines)
	assert.Equal(t, 1, report.ImplicitTerminations)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, fakeClock.Now(), report.StartedAt)
	assert.Equal(t, fakeClock.Now(), report.FinishedAt)

	assert.NoError(t, p.CheckReadiness(context.Background()))
	last, ok := p.LastReport()
	require.True(t, ok)
	assert.Equal(t, report.RunID, last.RunID)

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RecordsAccepted), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RecordsLoaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RecordsDropped.WithLabelValues(string(domain.DropZeroFrequency))), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_PanicDropsSingleRecord(t *testing.T) {
	ext := &mockExtractor{records: sampleRecords()}
	tfm := &panickyTransformer{inner: pipeline.NewTransformer(nil, nil, discardLogger()), panicOn: 1}
	ldr := &mockLoader{}
	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics(), 50)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, tfm.observed)
	assert.Equal(t, 1, report.DroppedByReason[domain.DropInternal])
	assert.Equal(t, 2, report.Accepted)
	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "AF 4", ldr.loaded[0].AgencySerial)
}

func TestPipeline_Run_EmptyInput(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, pipeline.NewTransformer(nil, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Accepted)
	assert.Zero(t, ldr.batches)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: errors.New("disk on fire")}
	p := pipeline.New(ext, pipeline.NewTransformer(nil, nil, discardLogger()), &mockLoader{}, discardLogger(), newTestMetrics(), 50)

	_, err := p.Run(context.Background())
	require.ErrorContains(t, err, "disk on fire")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoadRetry(t *testing.T) {
	ldr := &mockLoader{failures: 1}
	p := pipeline.New(&mockExtractor{records: sampleRecords()[:1]}, pipeline.NewTransformer(nil, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accepted)
	assert.Len(t, ldr.loaded, 1)
}

func TestPipeline_Run_LoadRetryCancelled(t *testing.T) {
	ldr := &mockLoader{failures: 100}
	p := pipeline.New(&mockExtractor{records: sampleRecords()[:1]}, pipeline.NewTransformer(nil, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_CancelledBeforeStart(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{records: sampleRecords()}, pipeline.NewTransformer(nil, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_Idempotent(t *testing.T) {
	run := func() []domain.NormalizedRecord {
		ldr := &mockLoader{}
		p := pipeline.New(&mockExtractor{records: sampleRecords()}, pipeline.NewTransformer(nil, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 2)
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		return ldr.loaded
	}
	assert.Equal(t, run(), run())
}
