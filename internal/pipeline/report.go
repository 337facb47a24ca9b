package pipeline

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

// Report summarizes one conversion run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	LinesScanned         int `json:"lines_scanned"`
	RecordsOpened        int `json:"records_opened"`
	RecordsSegmented     int `json:"records_segmented"`
	EmptyDiscarded       int `json:"empty_discarded"`
	MalformedLines       int `json:"malformed_lines"`
	ImplicitTerminations int `json:"implicit_terminations"`

	Accepted        int                         `json:"accepted"`
	Dropped         int                         `json:"dropped"`
	DroppedByReason map[domain.DropReason]int   `json:"dropped_by_reason"`
	Fallbacks       map[domain.FallbackKind]int `json:"fallbacks"`
}

func newReport(runID string, started time.Time) Report {
	return Report{
		RunID:           runID,
		StartedAt:       started,
		DroppedByReason: make(map[domain.DropReason]int),
		Fallbacks:       make(map[domain.FallbackKind]int),
	}
}

// Duration is the wall time between start and finish.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) applySegmentStats(s domain.SegmentStats) {
	r.LinesScanned = s.Lines
	r.RecordsOpened = s.Opened
	r.EmptyDiscarded = s.Discarded
	r.MalformedLines = s.Malformed
	r.ImplicitTerminations = s.Implicit
}

func (r *Report) record(out domain.Outcome) {
	r.RecordsSegmented++
	for _, fb := range out.Fallbacks {
		r.Fallbacks[fb.Kind]++
	}
	if out.Accepted() {
		r.Accepted++
		return
	}
	r.Dropped++
	r.DroppedByReason[out.Drop.Reason]++
}

// LogValue renders the report as a log group.
func (r Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID),
		slog.Int("lines", r.LinesScanned),
		slog.Int("segmented", r.RecordsSegmented),
		slog.Int("accepted", r.Accepted),
		slog.Int("dropped", r.Dropped),
		slog.Int("malformed_lines", r.MalformedLines),
		slog.Int("implicit_terminations", r.ImplicitTerminations),
		slog.Duration("duration", r.Duration()),
	}
	for _, reason := range slices.Sorted(maps.Keys(r.DroppedByReason)) {
		attrs = append(attrs, slog.Int("dropped."+string(reason), r.DroppedByReason[reason]))
	}
	return slog.GroupValue(attrs...)
}
