package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/sfaf-etl/internal/adapter/export"
	"github.com/couchcryptid/sfaf-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = filepath.Join("..", "..", "data", "mock", "sample.sfaf")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd(observability.NewMetricsForTesting())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestConvert_Fixture(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "records.json")
	csvPath := filepath.Join(dir, "records.csv")
	xlsxPath := filepath.Join(dir, "records.xlsx")

	out, err := execute(t, "convert", fixture, "-j", jsonPath, "-o", csvPath, "--xlsx", xlsxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "5 accepted, 2 dropped")

	records, err := export.ReadJSONFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, records, 5)

	rows, err := export.ReadCSVFile(csvPath, false)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i := range records {
		assert.Equal(t, export.RowOf(records[i]), rows[i])
	}

	_, err = os.Stat(xlsxPath)
	require.NoError(t, err)
}

func TestConvert_CSVHeaderFlag(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "records.csv")

	_, err := execute(t, "convert", fixture, "-j", filepath.Join(dir, "records.json"), "-o", csvPath, "--csv-header")
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(export.CSVHeader, ",")+"\n"))
}

func TestConvert_EnvConfiguredOutputs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SFAF_JSON_OUTPUT", filepath.Join(dir, "env.json"))
	t.Setenv("SFAF_CSV_OUTPUT", filepath.Join(dir, "env.csv"))

	_, err := execute(t, "convert", fixture)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "env.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "env.csv"))
	require.NoError(t, err)
}

func TestConvert_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "convert", filepath.Join(dir, "missing.sfaf"), "-j", filepath.Join(dir, "r.json"), "-o", filepath.Join(dir, "r.csv"))
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "r.json"))
	assert.True(t, os.IsNotExist(statErr), "no output should be created when the input cannot be opened")
}

func TestConvert_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "convert", fixture, "-j", filepath.Join(dir, "no-such-dir", "r.json"), "-o", filepath.Join(dir, "r.csv"))
	require.Error(t, err)
}

func TestConvert_BadCorrelation(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "convert", fixture, "-j", filepath.Join(dir, "r.json"), "-o", filepath.Join(dir, "r.csv"), "--correlation", "fuzzy")
	require.ErrorContains(t, err, "SFAF_CORRELATION")
}

func TestConvert_RequiresInput(t *testing.T) {
	_, err := execute(t, "convert")
	require.Error(t, err)
}
