// Command genmock writes a deterministic synthetic SFAF one-column export and,
// optionally, the normalized records the converter is expected to produce
// for it. The expected output runs through the actual domain package, so it
// always matches real assembly behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/generated.sfaf \
//	  -expected data/mock/generated_expected.json \
//	  -n 500 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated SFAF file")
	expected := flag.String("expected", "", "optional output path for the expected normalized JSON")
	n := flag.Int("n", 100, "number of records to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" || *n < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flag -out (and -n must be positive)")
	}

	lines := generate(*n, *seed)
	if err := writeLines(*out, lines); err != nil {
		return fmt.Errorf("writing SFAF fixture: %w", err)
	}
	log.Printf("wrote SFAF fixture: %s (%d lines)", *out, len(lines))

	accepted, dropped := assemble(lines)
	if *expected != "" {
		if err := writeJSON(*expected, accepted); err != nil {
			return fmt.Errorf("writing expected output: %w", err)
		}
		log.Printf("wrote expected output: %s", *expected)
	}

	printStats(accepted, dropped)
	return nil
}

// assemble segments and assembles lines with the default positional
// correlation, returning accepted records and drop counts by reason.
func assemble(lines []string) ([]domain.NormalizedRecord, map[domain.DropReason]int) {
	a := domain.NewAssembler(nil)
	accepted := []domain.NormalizedRecord{}
	dropped := map[domain.DropReason]int{}
	for _, raw := range domain.Segment(lines) {
		out := a.Assemble(raw)
		if out.Accepted() {
			accepted = append(accepted, out.Record)
			continue
		}
		dropped[out.Drop.Reason]++
	}
	return accepted, dropped
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(accepted []domain.NormalizedRecord, dropped map[domain.DropReason]int) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Accepted: %d\n", len(accepted))
	for _, reason := range slices.Sorted(maps.Keys(dropped)) {
		fmt.Printf("Dropped (%s): %d\n", reason, dropped[reason])
	}

	agencies := map[string]int{}
	var atOrigin, stations int
	for i := range accepted {
		agencies[accepted[i].Agency]++
		stations += len(accepted[i].Stations)
		if accepted[i].Latitude == 0 && accepted[i].Longitude == 0 {
			atOrigin++
		}
	}
	fmt.Printf("Stations: %d\n", stations)
	fmt.Printf("At origin: %d\n", atOrigin)
	fmt.Print("By agency:")
	for _, agency := range slices.Sorted(maps.Keys(agencies)) {
		fmt.Printf(" %s=%d", agency, agencies[agency])
	}
	fmt.Println()
	if len(accepted) > 0 {
		first := accepted[0]
		fmt.Printf("\nFirst record: %s %g Hz bw=%g lat=%g lon=%g\n",
			first.AgencySerial, first.CenterFrequency, first.Bandwidth, first.Latitude, first.Longitude)
	}
}
