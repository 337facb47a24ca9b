package report

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(agency string, freq, bw, lat float64, stations int) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		Agency:          agency,
		CenterFrequency: freq,
		Bandwidth:       bw,
		Latitude:        lat,
		Stations:        make([]domain.StationEmissionGroup, stations),
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{500, "ELF"},
		{4500000, "HF"},
		{30e6, "VHF"},
		{138025000, "VHF"},
		{225500000, "VHF"},
		{2.5e9, "UHF"},
		{9.4e9, "SHF"},
		{94e9, "EHF"},
		{400e9, "THF"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.hz), "Band(%v)", tt.hz)
	}
}

func TestCollector_Summary(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.LoadBatch(context.Background(), []domain.NormalizedRecord{
		rec("USAF", 100e6, 10e3, 39.9, 2),
		rec("USAF", 200e6, 20e3, 0, 1),
	}))
	require.NoError(t, c.LoadBatch(context.Background(), []domain.NormalizedRecord{
		rec("", 300e6, 30e3, -33.75, 0),
		rec("USN", 4.5e6, 3e3, 10, 1),
	}))
	require.NoError(t, c.Close())

	s := c.Summary()
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 4, s.Stations)
	assert.Equal(t, 1, s.AtOrigin)
	assert.Zero(t, s.Sited)

	if diff := cmp.Diff(map[string]int{"USAF": 2, "USN": 1, "unknown": 1}, s.ByAgency); diff != "" {
		t.Errorf("by agency (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"VHF": 2, "UHF": 1, "HF": 1}, s.ByBand); diff != "" {
		t.Errorf("by band (-want +got):\n%s", diff)
	}

	assert.Equal(t, 4.5e6, s.Frequency.Min)
	assert.Equal(t, 300e6, s.Frequency.Max)
	assert.InDelta(t, 151.125e6, s.Frequency.Mean, 1)
	assert.Equal(t, 100e6, s.Frequency.Median)
	assert.Equal(t, 300e6, s.Frequency.P90)
	assert.Greater(t, s.Frequency.StdDev, 0.0)

	assert.Equal(t, 3e3, s.Bandwidth.Min)
	assert.Equal(t, 30e3, s.Bandwidth.Max)
}

func TestCollector_SingleRecordHasZeroStdDev(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.LoadBatch(context.Background(), []domain.NormalizedRecord{rec("AF", 138e6, 16e3, 1, 1)}))

	s := c.Summary()
	assert.Zero(t, s.Frequency.StdDev)
	assert.Equal(t, 138e6, s.Frequency.Median)

	_, err := json.Marshal(s)
	require.NoError(t, err)
}

func TestCollector_Empty(t *testing.T) {
	s := NewCollector().Summary()
	assert.Zero(t, s.Records)
	assert.Equal(t, Stats{}, s.Frequency)
	assert.Empty(t, s.ByAgency)
}

func TestCollector_ConcurrentLoads(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.LoadBatch(context.Background(), []domain.NormalizedRecord{rec("AF", 1e6, 1e3, 1, 0)})
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, c.Summary().Records)
}

func TestSummary_SnapshotIsIndependent(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.LoadBatch(context.Background(), []domain.NormalizedRecord{rec("AF", 1e6, 1e3, 1, 0)}))

	s := c.Summary()
	s.ByAgency["AF"] = 99
	assert.Equal(t, 1, c.Summary().ByAgency["AF"])
}
