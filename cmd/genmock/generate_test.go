package main

import (
	"testing"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	assert.Equal(t, generate(50, 7), generate(50, 7))
	assert.NotEqual(t, generate(50, 7), generate(50, 8))
}

func TestGenerate_SegmentsIntoRequestedRecords(t *testing.T) {
	const n = 200
	lines := generate(n, 42)

	s := domain.NewSegmenter()
	var emitted []domain.RawRecord
	for _, line := range lines {
		if rec, ok := s.Feed(line); ok {
			emitted = append(emitted, rec)
		}
	}
	last, ok := s.Finish()
	require.True(t, ok)
	emitted = append(emitted, last)

	require.Len(t, emitted, n)
	assert.Equal(t, domain.TerminatedEOF, last.Termination)
	assert.Equal(t, n-1, s.Stats().Emitted-s.Stats().Implicit)
}

func TestGenerate_AssemblesWithDropsAndNoZeroFrequencies(t *testing.T) {
	accepted, dropped := assemble(generate(300, 42))

	require.NotEmpty(t, accepted)
	assert.Positive(t, dropped[domain.DropZeroFrequency], "ranged frequencies should be generated")
	assert.Positive(t, dropped[domain.DropMissingEmissionDesignator])
	for _, rec := range accepted {
		assert.NotZero(t, rec.CenterFrequency)
		assert.NotNil(t, rec.Stations)
	}
}
