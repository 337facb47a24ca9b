// Package export writes normalized records to the conversion output files.
package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
)

const jsonIndent = "    "

// JSONFile streams records into a JSON array, one indented object per record.
type JSONFile struct {
	path  string
	f     *os.File
	w     *bufio.Writer
	count int
}

// NewJSONFile creates (or truncates) path.
func NewJSONFile(path string) (*JSONFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create json output: %w", err)
	}
	return &JSONFile{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// LoadBatch encodes the whole batch before writing any of it, so a failed
// batch leaves nothing behind in the file.
func (j *JSONFile) LoadBatch(_ context.Context, records []domain.NormalizedRecord) error {
	var buf bytes.Buffer
	for i := range records {
		data, err := marshalIndented(records[i])
		if err != nil {
			return fmt.Errorf("encode record %s: %w", records[i].AgencySerial, err)
		}
		if j.count+i == 0 {
			buf.WriteString("[\n" + jsonIndent)
		} else {
			buf.WriteString(",\n" + jsonIndent)
		}
		buf.Write(data)
	}
	if _, err := j.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", j.path, err)
	}
	j.count += len(records)
	return nil
}

// Close terminates the array and closes the file.
func (j *JSONFile) Close() error {
	tail := "\n]\n"
	if j.count == 0 {
		tail = "[]\n"
	}
	if _, err := j.w.WriteString(tail); err != nil {
		j.f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("write %s: %w", j.path, err)
	}
	if err := j.w.Flush(); err != nil {
		j.f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("flush %s: %w", j.path, err)
	}
	return j.f.Close()
}

func (j *JSONFile) String() string { return "json:" + j.path }

func marshalIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(jsonIndent, jsonIndent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ReadJSONFile loads a records file written by JSONFile.
func ReadJSONFile(path string) ([]domain.NormalizedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.NormalizedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
