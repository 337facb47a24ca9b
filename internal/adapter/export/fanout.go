package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Sink is an output destination. Close finishes writing it.
type Sink interface {
	LoadBatch(ctx context.Context, records []domain.NormalizedRecord) error
	Close() error
}

// Fanout hands every batch to each sink in order. After a failed LoadBatch
// the next call is treated as a retry of the same batch and skips the sinks
// that already accepted it.
type Fanout struct {
	sinks    []Sink
	loaded   []bool
	retrying bool
}

// NewFanout returns a Fanout over sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, loaded: make([]bool, len(sinks))}
}

func (f *Fanout) LoadBatch(ctx context.Context, records []domain.NormalizedRecord) error {
	if !f.retrying {
		clear(f.loaded)
	}

	var errs []error
	for i, s := range f.sinks {
		if f.loaded[i] {
			continue
		}
		if err := s.LoadBatch(ctx, records); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", s, err))
			continue
		}
		f.loaded[i] = true
	}

	f.retrying = len(errs) > 0
	return errors.Join(errs...)
}

// Close closes every sink concurrently and reports all failures.
func (f *Fanout) Close() error {
	var g errgroup.Group
	errs := make([]error, len(f.sinks))
	for i, s := range f.sinks {
		g.Go(func() error {
			if err := s.Close(); err != nil {
				errs[i] = fmt.Errorf("%v: %w", s, err)
			}
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	return errors.Join(errs...)
}
