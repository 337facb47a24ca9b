// Package report aggregates accepted records into a run summary: counts by
// agency and radio band plus frequency and bandwidth statistics.
package report

import (
	"context"
	"slices"
	"sync"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Stats describes the distribution of one numeric field in Hz.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// Summary is a snapshot of everything a Collector has seen.
type Summary struct {
	Records   int            `json:"records"`
	Stations  int            `json:"stations"`
	Sited     int            `json:"sited"`
	AtOrigin  int            `json:"at_origin"`
	Frequency Stats          `json:"frequency"`
	Bandwidth Stats          `json:"bandwidth"`
	ByAgency  map[string]int `json:"by_agency"`
	ByBand    map[string]int `json:"by_band"`
}

// Collector is an output sink that keeps just enough of each record to
// summarize the run. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	freqs    []float64
	bws      []float64
	stations int
	sited    int
	origin   int
	byAgency map[string]int
	byBand   map[string]int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		byAgency: make(map[string]int),
		byBand:   make(map[string]int),
	}
}

// LoadBatch folds records into the running totals.
func (c *Collector) LoadBatch(_ context.Context, records []domain.NormalizedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range records {
		rec := &records[i]
		c.freqs = append(c.freqs, rec.CenterFrequency)
		c.bws = append(c.bws, rec.Bandwidth)
		c.stations += len(rec.Stations)
		if rec.SiteAddress != "" {
			c.sited++
		}
		if rec.Latitude == 0 && rec.Longitude == 0 {
			c.origin++
		}
		agency := rec.Agency
		if agency == "" {
			agency = "unknown"
		}
		c.byAgency[agency]++
		c.byBand[Band(rec.CenterFrequency)]++
	}
	return nil
}

// Close is a no-op; the summary stays readable after the run.
func (c *Collector) Close() error { return nil }

func (c *Collector) String() string { return "summary" }

// Summary computes the current snapshot.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Records:   len(c.freqs),
		Stations:  c.stations,
		Sited:     c.sited,
		AtOrigin:  c.origin,
		Frequency: describe(c.freqs),
		Bandwidth: describe(c.bws),
		ByAgency:  make(map[string]int, len(c.byAgency)),
		ByBand:    make(map[string]int, len(c.byBand)),
	}
	for k, v := range c.byAgency {
		s.ByAgency[k] = v
	}
	for k, v := range c.byBand {
		s.ByBand[k] = v
	}
	return s
}

func describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	st := Stats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
	// Sample standard deviation is undefined for a single value.
	if len(sorted) > 1 {
		st.StdDev = stat.StdDev(sorted, nil)
	}
	return st
}

// ITU radio band designations, by upper bound in Hz.
var bands = []struct {
	name  string
	upper float64
}{
	{"ELF", 3e3},
	{"VLF", 30e3},
	{"LF", 300e3},
	{"MF", 3e6},
	{"HF", 30e6},
	{"VHF", 300e6},
	{"UHF", 3e9},
	{"SHF", 30e9},
	{"EHF", 300e9},
}

// Band returns the ITU band name for a frequency in Hz. Upper bounds are
// exclusive, so 30 MHz is VHF. Anything at or above 300 GHz is "THF".
func Band(hz float64) string {
	for _, b := range bands {
		if hz < b.upper {
			return b.name
		}
	}
	return "THF"
}
