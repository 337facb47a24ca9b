// Command validate performs integrity checks across the outputs of one
// conversion run: the JSON records file, the CSV row file and, optionally,
// an expected-records fixture written by genmock. It verifies row counts,
// row-by-row agreement between JSON and CSV, and the output invariants
// (no zero center frequency, coordinates in range, stations always present).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -json records.json \
//	  -csv recordsspreadsheet.csv \
//	  -expected data/mock/generated_expected.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/sfaf-etl/internal/adapter/export"
	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	jsonPath := flag.String("json", "records.json", "path to the JSON records output")
	csvPath := flag.String("csv", "recordsspreadsheet.csv", "path to the CSV row output")
	csvHeader := flag.Bool("csv-header", false, "the CSV output starts with a header row")
	expectedPath := flag.String("expected", "", "optional expected JSON records (from genmock)")
	flag.Parse()

	os.Exit(run(*jsonPath, *csvPath, *csvHeader, *expectedPath))
}

func run(jsonPath, csvPath string, csvHeader bool, expectedPath string) int {
	fmt.Println("=== SFAF Output Integrity Validation ===")
	fmt.Println()

	records, err := export.ReadJSONFile(jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load JSON: %v\n", err)
		return 1
	}

	rows, err := export.ReadCSVFile(csvPath, csvHeader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	var expected []domain.NormalizedRecord
	if expectedPath != "" {
		if expected, err = export.ReadJSONFile(expectedPath); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load expected JSON: %v\n", err)
			return 1
		}
	}

	phases := validate(records, rows, expected, expectedPath != "")

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d JSON, %d CSV", len(records), len(rows))
	if expectedPath != "" {
		fmt.Printf(", %d expected", len(expected))
	}
	fmt.Println()

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(records []domain.NormalizedRecord, rows []export.Row, expected []domain.NormalizedRecord, haveExpected bool) []*phase {
	phases := []*phase{
		validateRowParity(records, rows),
		validateRecordInvariants(records),
	}
	if haveExpected {
		phases = append(phases, validateExpected(records, expected))
	}
	return phases
}
