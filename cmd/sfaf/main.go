// Command sfaf converts SFAF one-column frequency assignment exports into
// JSON, CSV and optional XLSX/Kafka outputs, and can serve the converted
// records over HTTP.
package main

import (
	"os"

	"github.com/couchcryptid/sfaf-etl/internal/observability"
)

func main() {
	if err := newRootCmd(observability.NewMetrics()).Execute(); err != nil {
		os.Exit(1)
	}
}
