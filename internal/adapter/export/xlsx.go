package export

import (
	"context"
	"fmt"
	"sort"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names used by Workbook.
const (
	RecordsSheet  = "records"
	StationsSheet = "stations"
)

type column struct {
	header string
	value  func(*domain.NormalizedRecord) any
}

func mhz(hz float64) float64 { return hz / 1e6 }

// recordColumns lists every record field except name, sorted by header.
// Frequencies and bandwidth are in MHz.
var recordColumns = sortedColumns([]column{
	{"agency", func(r *domain.NormalizedRecord) any { return r.Agency }},
	{"agency_serial", func(r *domain.NormalizedRecord) any { return r.AgencySerial }},
	{"antenna_gain", func(r *domain.NormalizedRecord) any { return r.AntennaGain }},
	{"bandwidth", func(r *domain.NormalizedRecord) any { return mhz(r.Bandwidth) }},
	{"bureau", func(r *domain.NormalizedRecord) any { return r.Bureau }},
	{"center_frequency", func(r *domain.NormalizedRecord) any { return mhz(r.CenterFrequency) }},
	{"command", func(r *domain.NormalizedRecord) any { return r.Command }},
	{"equipment_nomenclature", func(r *domain.NormalizedRecord) any { return r.EquipmentNomenclature }},
	{"expiration_date", func(r *domain.NormalizedRecord) any { return r.ExpirationDate }},
	{"installation_frequency_manager", func(r *domain.NormalizedRecord) any { return r.InstallationFrequencyManager }},
	{"intermediate_function_identifier", func(r *domain.NormalizedRecord) any { return r.IntermediateFunctionIdentifier }},
	{"latitude", func(r *domain.NormalizedRecord) any { return r.Latitude }},
	{"list_serial", func(r *domain.NormalizedRecord) any { return r.ListSerial }},
	{"longitude", func(r *domain.NormalizedRecord) any { return r.Longitude }},
	{"major_function_identifier", func(r *domain.NormalizedRecord) any { return r.MajorFunctionIdentifier }},
	{"pulse_duration", func(r *domain.NormalizedRecord) any { return r.PulseDuration }},
	{"pulse_repetition_rate", func(r *domain.NormalizedRecord) any { return r.PulseRepetitionRate }},
	{"reference_frequency", func(r *domain.NormalizedRecord) any {
		if r.ReferenceFrequency == nil {
			return ""
		}
		return mhz(*r.ReferenceFrequency)
	}},
	{"required_date", func(r *domain.NormalizedRecord) any { return r.RequiredDate }},
	{"review_date", func(r *domain.NormalizedRecord) any { return r.ReviewDate }},
	{"site_address", func(r *domain.NormalizedRecord) any { return r.SiteAddress }},
	{"site_name", func(r *domain.NormalizedRecord) any { return r.SiteName }},
	{"stations", func(r *domain.NormalizedRecord) any { return len(r.Stations) }},
	{"subcommand", func(r *domain.NormalizedRecord) any { return r.Subcommand }},
	{"transmitter_power", func(r *domain.NormalizedRecord) any { return r.TransmitterPower }},
	{"tx_antenna_feedpoint_height", func(r *domain.NormalizedRecord) any { return r.TxAntennaFeedpointHeight }},
	{"tx_authorized_radius", func(r *domain.NormalizedRecord) any { return r.TxAuthorizedRadius }},
	{"type_of_action", func(r *domain.NormalizedRecord) any { return r.TypeOfAction }},
	{"user_net", func(r *domain.NormalizedRecord) any { return r.UserNet }},
})

var stationHeader = []any{"agency_serial", "slot", "station_class", "transmitter_power", "effective_radiated_power"}

func sortedColumns(cols []column) []column {
	sort.Slice(cols, func(i, j int) bool { return cols[i].header < cols[j].header })
	return cols
}

// Workbook writes records to an XLSX file with a records sheet and a
// stations sheet holding one row per station/emission group.
type Workbook struct {
	path       string
	f          *excelize.File
	recordRow  int
	stationRow int
}

// NewWorkbook prepares an in-memory workbook saved to path on Close.
func NewWorkbook(path string) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	if _, err := f.NewSheet(StationsSheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	w := &Workbook{path: path, f: f, recordRow: 1, stationRow: 1}
	header := make([]any, len(recordColumns))
	for i, c := range recordColumns {
		header[i] = c.header
	}
	if err := w.appendRow(RecordsSheet, &w.recordRow, header); err != nil {
		return nil, err
	}
	if err := w.appendRow(StationsSheet, &w.stationRow, stationHeader); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workbook) LoadBatch(_ context.Context, records []domain.NormalizedRecord) error {
	for i := range records {
		rec := &records[i]
		row := make([]any, len(recordColumns))
		for j, c := range recordColumns {
			row[j] = c.value(rec)
		}
		if err := w.appendRow(RecordsSheet, &w.recordRow, row); err != nil {
			return err
		}
		for slot, st := range rec.Stations {
			if err := w.appendRow(StationsSheet, &w.stationRow, []any{
				rec.AgencySerial, slot + 1, st.StationClass, st.TransmitterPower, st.EffectiveRadiatedPower.String(),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close saves the workbook to disk.
func (w *Workbook) Close() error {
	if err := w.f.SaveAs(w.path); err != nil {
		w.f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("save %s: %w", w.path, err)
	}
	return w.f.Close()
}

func (w *Workbook) String() string { return "xlsx:" + w.path }

func (w *Workbook) appendRow(sheet string, next *int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, *next)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx %s row %d: %w", sheet, *next, err)
	}
	*next++
	return nil
}
