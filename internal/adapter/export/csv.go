package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

// CSVHeader names the flat row columns in order.
var CSVHeader = []string{"latitude", "longitude", "center_frequency", "bandwidth", "agency_serial"}

// Row is one flat CSV row.
type Row struct {
	Latitude        float64
	Longitude       float64
	CenterFrequency float64
	Bandwidth       float64
	AgencySerial    string
}

// RowOf projects a record onto the flat row shape.
func RowOf(rec domain.NormalizedRecord) Row {
	return Row{
		Latitude:        rec.Latitude,
		Longitude:       rec.Longitude,
		CenterFrequency: rec.CenterFrequency,
		Bandwidth:       rec.Bandwidth,
		AgencySerial:    rec.AgencySerial,
	}
}

// CSVFile writes one row per record.
type CSVFile struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

// NewCSVFile creates (or truncates) path, writing CSVHeader first when header is set.
func NewCSVFile(path string, header bool) (*CSVFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv output: %w", err)
	}
	c := &CSVFile{path: path, f: f, w: bufio.NewWriter(f)}
	if header {
		if err := c.writeRows([][]string{CSVHeader}); err != nil {
			f.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return c, nil
}

// LoadBatch encodes the whole batch before writing any of it, so a failed
// batch leaves nothing behind in the file.
func (c *CSVFile) LoadBatch(_ context.Context, records []domain.NormalizedRecord) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		r := RowOf(records[i])
		rows = append(rows, []string{
			formatFloat(r.Latitude),
			formatFloat(r.Longitude),
			formatFloat(r.CenterFrequency),
			formatFloat(r.Bandwidth),
			r.AgencySerial,
		})
	}
	if err := c.writeRows(rows); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	return nil
}

func (c *CSVFile) writeRows(rows [][]string) error {
	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(rows); err != nil {
		return err
	}
	_, err := c.w.Write(buf.Bytes())
	return err
}

// Close flushes buffered rows and closes the file.
func (c *CSVFile) Close() error {
	if err := c.w.Flush(); err != nil {
		c.f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("flush %s: %w", c.path, err)
	}
	return c.f.Close()
}

func (c *CSVFile) String() string { return "csv:" + c.path }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadCSVFile loads rows written by CSVFile. Set header when the file starts
// with a header line.
func ReadCSVFile(path string, header bool) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(CSVHeader)
	lines, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if header && len(lines) > 0 {
		lines = lines[1:]
	}

	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		var vals [4]float64
		for j := range vals {
			v, err := strconv.ParseFloat(line[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", path, i+1, CSVHeader[j], err)
			}
			vals[j] = v
		}
		rows = append(rows, Row{
			Latitude:        vals[0],
			Longitude:       vals[1],
			CenterFrequency: vals[2],
			Bandwidth:       vals[3],
			AgencySerial:    line[4],
		})
	}
	return rows, nil
}
