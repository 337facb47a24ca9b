package http

import (
	"context"
	"sync"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

// Store keeps accepted records in memory, in input order, for the query API.
// It implements the pipeline loader contract so it can sit in the sink
// fan-out next to the file exporters.
type Store struct {
	mu       sync.RWMutex
	records  []domain.NormalizedRecord
	bySerial map[string][]int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{bySerial: make(map[string][]int)}
}

// LoadBatch appends records to the store.
func (s *Store) LoadBatch(_ context.Context, records []domain.NormalizedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		s.bySerial[rec.AgencySerial] = append(s.bySerial[rec.AgencySerial], len(s.records))
		s.records = append(s.records, rec)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) String() string { return "memory" }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// BySerial returns every record carrying the agency serial number. Serials
// are not unique across an input file.
func (s *Store) BySerial(serial string) []domain.NormalizedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.bySerial[serial]
	out := make([]domain.NormalizedRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.records[i])
	}
	return out
}

// Query returns the records matching f, paged by offset and limit, along
// with the total number of matches.
func (s *Store) Query(f Filter, offset, limit int) ([]domain.NormalizedRecord, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.NormalizedRecord, 0, min(limit, len(s.records)))
	total := 0
	for i := range s.records {
		if !f.match(&s.records[i]) {
			continue
		}
		if total >= offset && len(out) < limit {
			out = append(out, s.records[i])
		}
		total++
	}
	return out, total
}
