package main

import (
	"math"

	"github.com/couchcryptid/sfaf-etl/internal/adapter/export"
	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const floatTolerance = 1e-6

// maxReported caps per-phase detail so a systematic failure stays readable.
const maxReported = 20

// validateRowParity checks that every JSON record has a CSV row, in the same
// order, carrying the same five values.
func validateRowParity(records []domain.NormalizedRecord, rows []export.Row) *phase {
	p := &phase{name: "JSON/CSV row parity"}
	if len(records) != len(rows) {
		p.errorf("record count mismatch: %d JSON vs %d CSV", len(records), len(rows))
	}
	for i := range min(len(records), len(rows)) {
		if len(p.errors) >= maxReported {
			break
		}
		want := export.RowOf(records[i])
		got := rows[i]
		if want.AgencySerial != got.AgencySerial {
			p.errorf("row %d: serial %q in JSON, %q in CSV", i+1, want.AgencySerial, got.AgencySerial)
			continue
		}
		checkFloat(p, i, want.AgencySerial, "latitude", want.Latitude, got.Latitude)
		checkFloat(p, i, want.AgencySerial, "longitude", want.Longitude, got.Longitude)
		checkFloat(p, i, want.AgencySerial, "center_frequency", want.CenterFrequency, got.CenterFrequency)
		checkFloat(p, i, want.AgencySerial, "bandwidth", want.Bandwidth, got.Bandwidth)
	}
	return p
}

func checkFloat(p *phase, i int, serial, field string, want, got float64) {
	if math.Abs(want-got) > floatTolerance {
		p.errorf("row %d (%s): %s %g in JSON, %g in CSV", i+1, serial, field, want, got)
	}
}

// validateRecordInvariants checks properties every accepted record must have.
func validateRecordInvariants(records []domain.NormalizedRecord) *phase {
	p := &phase{name: "Record invariants"}
	for i := range records {
		if len(p.errors) >= maxReported {
			break
		}
		r := &records[i]
		if r.CenterFrequency == 0 {
			p.errorf("record %d (%s): zero center frequency", i+1, r.AgencySerial)
		}
		if r.Bandwidth <= 0 {
			p.errorf("record %d (%s): non-positive bandwidth %g", i+1, r.AgencySerial, r.Bandwidth)
		}
		if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
			p.errorf("record %d (%s): coordinates out of range (%g, %g)", i+1, r.AgencySerial, r.Latitude, r.Longitude)
		}
		if r.Stations == nil {
			p.errorf("record %d (%s): stations missing", i+1, r.AgencySerial)
		}
		if r.Name != r.AgencySerial {
			p.errorf("record %d (%s): name %q differs from agency serial", i+1, r.AgencySerial, r.Name)
		}
		for j, st := range r.Stations {
			if st.TransmitterPower <= 0 {
				p.errorf("record %d (%s): station %d has non-positive power %g", i+1, r.AgencySerial, j+1, st.TransmitterPower)
			}
		}
	}
	return p
}

// validateExpected compares the converted records with a fixture produced
// by the domain package directly. Site fields are ignored since the fixture
// is never geocoded.
func validateExpected(records, expected []domain.NormalizedRecord) *phase {
	p := &phase{name: "Expected records"}
	opts := cmp.Options{
		cmpopts.EquateApprox(0, floatTolerance),
		cmpopts.IgnoreFields(domain.NormalizedRecord{}, "SiteName", "SiteAddress"),
	}
	if diff := cmp.Diff(expected, records, opts); diff != "" {
		p.errorf("records differ from fixture (-expected +got):\n%s", diff)
	}
	return p
}
