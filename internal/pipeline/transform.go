package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

// RecordTransformer implements Transformer with the domain assembler and
// optional site enrichment.
type RecordTransformer struct {
	assembler *domain.Assembler
	geocoder  domain.Geocoder
	logger    *slog.Logger
}

// NewTransformer creates a RecordTransformer. A nil correlation selects
// positional correlation; a nil geocoder disables site enrichment.
func NewTransformer(correlation domain.Correlation, geocoder domain.Geocoder, logger *slog.Logger) *RecordTransformer {
	return &RecordTransformer{
		assembler: domain.NewAssembler(correlation),
		geocoder:  geocoder,
		logger:    logger,
	}
}

func (t *RecordTransformer) Transform(ctx context.Context, raw domain.RawRecord) domain.Outcome {
	out := t.assembler.Assemble(raw)
	if !out.Accepted() {
		return out
	}
	out.Record = domain.EnrichWithSite(ctx, out.Record, t.geocoder, t.logger)
	return out
}
