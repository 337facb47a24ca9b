package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

type agency struct {
	prefix string
	name   string
	bureau string
}

var agencies = []agency{
	{"AF  ", "USAF", "ACC"},
	{"N   ", "USN", "NAVSEA"},
	{"A   ", "USA", "FORSCOM"},
	{"CG  ", "USCG", "LANTAREA"},
}

var (
	stationClasses = []string{"FB", "ML", "FX", "MO", "RA", "FA"}
	designators    = []string{"16K0F3E", "8K50F1E", "3K00J3E", "6K00A3E", "2M00G7W", "25K0G7W", "100KF9W"}
	functions      = []string{"AIR OPERATIONS", "COMMAND AND CONTROL", "TRAINING", "RANGE OPERATIONS"}
	units          = []struct {
		letter byte
		lo, hi float64
	}{
		{'K', 2000, 29999},
		{'M', 30, 2999},
		{'G', 3, 30},
	}
)

// generate returns the lines of a synthetic one-column export with n records.
// The same seed always yields the same lines. Roughly one record in twelve is
// ranged, one in fifteen lacks an emission designator, one in ten has bad
// coordinates, and the last record has no 924 terminator.
func generate(n int, seed uint64) []string {
	rng := rand.New(rand.NewPCG(seed, seed^0x5fa4))
	lines := []string{"SFAF ONE-COLUMN EXPORT", fmt.Sprintf("SEED %d", seed)}
	for i := range n {
		lines = append(lines, record(rng, i)...)
		if i < n-1 {
			lines = append(lines, field(domain.TagRecordClose, "ZZZZZ"))
		}
	}
	return lines
}

func record(rng *rand.Rand, i int) []string {
	ag := agencies[rng.IntN(len(agencies))]
	lines := []string{
		field(domain.TagRecordOpen, "UE"),
		field("010", "N"),
		field("102", fmt.Sprintf("%s%06d", ag.prefix, 100000+i)),
		field("110", frequency(rng)),
	}

	groups := 1 + rng.IntN(3)
	for range groups {
		lines = append(lines, field("113", pick(rng, stationClasses)))
	}
	if rng.IntN(15) != 0 {
		lines = append(lines, field("114", pick(rng, designators)))
	}
	for range groups {
		lines = append(lines, field("115", power(rng)))
	}
	if rng.IntN(2) == 0 {
		lines = append(lines, field("117", power(rng)))
	}

	lines = append(lines,
		field("140", fmt.Sprintf("20%02d%02d%02d", 15+rng.IntN(10), 1+rng.IntN(12), 1+rng.IntN(28))),
		field("200", ag.name),
		field("203", ag.bureau),
		field("208", fmt.Sprintf("%s%02d", ag.name, rng.IntN(100))),
		field("303", coordinates(rng)),
		field("511", pick(rng, functions)),
	)
	if rng.IntN(20) == 0 {
		// value-bearing line without the tag delimiter
		lines = append(lines, "110 M225.5")
	}
	return lines
}

func frequency(rng *rand.Rand) string {
	u := units[rng.IntN(len(units))]
	v := u.lo + rng.Float64()*(u.hi-u.lo)
	f := fmt.Sprintf("%c%.3f", u.letter, v)
	if rng.IntN(12) == 0 {
		return fmt.Sprintf("%s-%c%.3f", f, u.letter, v+1)
	}
	return f
}

func power(rng *rand.Rand) string {
	if rng.IntN(4) == 0 {
		return fmt.Sprintf("K%.1f", 0.1+rng.Float64()*5)
	}
	return fmt.Sprintf("W%d", 1+rng.IntN(500))
}

func coordinates(rng *rand.Rand) string {
	if rng.IntN(10) == 0 {
		return "BADCOORDINATE15"
	}
	return domain.FormatCoordinates(domain.Coordinates{
		Latitude:  -80 + rng.Float64()*160,
		Longitude: -179 + rng.Float64()*358,
	})
}

func field(tag, value string) string {
	return tag + ".     " + value
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}
