// Package sfaffile reads SFAF one-column exports from disk and segments them
// into raw records.
package sfaffile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/observability"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxLineBytes caps how much of one line is kept. The rest of a longer line
// is discarded and the line is reported as malformed.
const maxLineBytes = 1 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Reader streams raw records out of an SFAF file. It implements
// pipeline.BatchExtractor and pipeline.SegmentReporter.
type Reader struct {
	name    string
	src     *bufio.Reader
	seg     *domain.Segmenter
	closers []func() error
	done    bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open opens path for reading. Gzip and zstd compressed files are detected
// by their magic bytes and decompressed transparently.
func Open(path string, logger *slog.Logger, metrics *observability.Metrics) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	src, closers, err := decompress(f)
	if err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	r := NewReader(src, path, logger, metrics)
	r.closers = append(closers, f.Close)
	return r, nil
}

// NewReader wraps an already-open, uncompressed stream. name is used in logs.
func NewReader(src io.Reader, name string, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	r := &Reader{
		name:    name,
		src:     bufio.NewReaderSize(src, 64*1024),
		seg:     domain.NewSegmenter(),
		logger:  logger,
		metrics: metrics,
	}
	r.seg.OnMalformed = r.onMalformed
	return r
}

func decompress(f *os.File) (io.Reader, []func() error, error) {
	br := bufio.NewReader(f)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, []func() error{zr.Close}, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, []func() error{func() error { zr.Close(); return nil }}, nil
	default:
		return br, nil, nil
	}
}

// ExtractBatch returns up to batchSize raw records in encounter order. When
// the input is exhausted it flushes any still-open record and returns io.EOF.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	if r.done {
		return nil, io.EOF
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	batch := make([]domain.RawRecord, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		line, truncated, err := r.readLine()
		if errors.Is(err, io.EOF) {
			r.done = true
			if rec, ok := r.seg.Finish(); ok {
				batch = append(batch, r.emitted(rec))
			}
			return batch, io.EOF
		}
		if err != nil {
			return batch, fmt.Errorf("read %s: %w", r.name, err)
		}

		r.metrics.LinesScanned.Inc()
		feed := r.seg.Feed
		if truncated {
			feed = r.seg.FeedTruncated
		}
		if rec, ok := feed(line); ok {
			batch = append(batch, r.emitted(rec))
		}
	}
	return batch, nil
}

// readLine returns the next line without its line ending. At most
// maxLineBytes are kept; truncated reports whether anything was dropped.
func (r *Reader) readLine() (string, bool, error) {
	var (
		buf       []byte
		truncated bool
	)
	for {
		chunk, more, err := r.src.ReadLine()
		if err != nil {
			return "", false, err
		}
		if room := maxLineBytes - len(buf); len(chunk) > room {
			chunk = chunk[:room]
			truncated = true
		}
		buf = append(buf, chunk...)
		if !more {
			return string(buf), truncated, nil
		}
	}
}

// SegmentStats reports the segmenter counters so far.
func (r *Reader) SegmentStats() domain.SegmentStats {
	return r.seg.Stats()
}

// Close releases the decompressor and the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Reader) emitted(rec domain.RawRecord) domain.RawRecord {
	if rec.Termination.Implicit() {
		r.metrics.ImplicitTerminations.WithLabelValues(rec.Termination.String()).Inc()
		r.logger.Debug("record closed without terminator",
			"record", rec.Ordinal,
			"serial", domain.SerialOf(rec.Fields),
			"line", rec.Line,
			"kind", rec.Termination.String(),
		)
	}
	return rec
}

func (r *Reader) onMalformed(m domain.MalformedLine) {
	r.metrics.MalformedLines.Inc()
	r.logger.Warn("malformed line skipped",
		"file", r.name,
		"line", m.Line,
		"tag", m.Tag,
		"error", m.Err,
	)
}
