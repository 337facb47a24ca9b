package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// missingValue is the placeholder the source feed uses for an empty cell.
const missingValue = "nan"

// RawFieldRecord maps field labels (with occurrence suffixes for repeat
// groups) to the trimmed text found on the record's lines.
type RawFieldRecord map[string]string

// Get returns the value stored under key.
func (r RawFieldRecord) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Value returns the value stored under key, or "" when absent.
func (r RawFieldRecord) Value(key string) string {
	return r[key]
}

// Clean returns a copy of r without fields holding the missing-value placeholder.
func (r RawFieldRecord) Clean() RawFieldRecord {
	out := make(RawFieldRecord, len(r))
	for k, v := range r {
		if v == missingValue {
			continue
		}
		out[k] = v
	}
	return out
}

// occurrence is one member of a repeat group.
type occurrence struct {
	index int
	key   string
	value string
}

// occurrences returns the members of the repeat group label ordered by their
// occurrence index.
func (r RawFieldRecord) occurrences(label string) []occurrence {
	prefix := label + "["
	var out []occurrence
	for k, v := range r {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, "]") {
			continue
		}
		n, err := strconv.Atoi(k[len(prefix) : len(k)-1])
		if err != nil {
			continue
		}
		out = append(out, occurrence{index: n, key: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

// Repeated returns the values of the repeat group label in occurrence order.
func (r RawFieldRecord) Repeated(label string) []string {
	occ := r.occurrences(label)
	out := make([]string, len(occ))
	for i, o := range occ {
		out[i] = o.value
	}
	return out
}

// Termination records how the segmenter closed a raw record.
type Termination int

const (
	// TerminatedExplicit is a record closed by tag 924.
	TerminatedExplicit Termination = iota
	// TerminatedReopened is a record flushed because tag 005 appeared before 924.
	TerminatedReopened
	// TerminatedEOF is a record still open at end of input.
	TerminatedEOF
)

func (t Termination) String() string {
	switch t {
	case TerminatedExplicit:
		return "explicit"
	case TerminatedReopened:
		return "reopened"
	case TerminatedEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Implicit reports whether the record was closed without a 924 line.
func (t Termination) Implicit() bool { return t != TerminatedExplicit }

// RawRecord is one segmented record region.
type RawRecord struct {
	Ordinal     int // 1-based position in the emitted sequence
	Line        int // line number of the opening 005 line
	Fields      RawFieldRecord
	Termination Termination
}

// StationEmissionGroup is one correlated station class / transmitter power /
// ERP triple.
type StationEmissionGroup struct {
	StationClass           string  `json:"station_class"`
	TransmitterPower       float64 `json:"transmitter_power"`
	EffectiveRadiatedPower ERP     `json:"effective_radiated_power"`
}

// ERP is an effective radiated power entry. Present entries serialize as
// their raw field text; absent entries serialize as the number 0.
type ERP struct {
	Raw     string
	Present bool
}

// NewERP returns a present ERP holding raw.
func NewERP(raw string) ERP { return ERP{Raw: raw, Present: true} }

func (e ERP) String() string {
	if !e.Present {
		return "0"
	}
	return e.Raw
}

func (e ERP) MarshalJSON() ([]byte, error) {
	if !e.Present {
		return []byte("0"), nil
	}
	return json.Marshal(e.Raw)
}

func (e *ERP) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = NewERP(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n == 0 {
		*e = ERP{}
		return nil
	}
	*e = NewERP(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// NormalizedRecord is the validated output of one raw record.
type NormalizedRecord struct {
	Name                           string                 `json:"name"`
	AgencySerial                   string                 `json:"agency_serial"`
	ListSerial                     string                 `json:"list_serial"`
	TypeOfAction                   string                 `json:"type_of_action"`
	CenterFrequency                float64                `json:"center_frequency"`
	ReferenceFrequency             *float64               `json:"reference_frequency"`
	Bandwidth                      float64                `json:"bandwidth"`
	Latitude                       float64                `json:"latitude"`
	Longitude                      float64                `json:"longitude"`
	Agency                         string                 `json:"agency"`
	Bureau                         string                 `json:"bureau"`
	Command                        string                 `json:"command"`
	Subcommand                     string                 `json:"subcommand"`
	InstallationFrequencyManager   string                 `json:"installation_frequency_manager"`
	UserNet                        string                 `json:"user_net"`
	MajorFunctionIdentifier        string                 `json:"major_function_identifier"`
	IntermediateFunctionIdentifier string                 `json:"intermediate_function_identifier"`
	EquipmentNomenclature          string                 `json:"equipment_nomenclature"`
	PulseDuration                  string                 `json:"pulse_duration"`
	PulseRepetitionRate            string                 `json:"pulse_repetition_rate"`
	AntennaGain                    string                 `json:"antenna_gain"`
	TransmitterPower               string                 `json:"transmitter_power"`
	TxAuthorizedRadius             string                 `json:"tx_authorized_radius"`
	TxAntennaFeedpointHeight       string                 `json:"tx_antenna_feedpoint_height"`
	RequiredDate                   string                 `json:"required_date"`
	ExpirationDate                 string                 `json:"expiration_date"`
	ReviewDate                     string                 `json:"review_date"`
	Stations                       []StationEmissionGroup `json:"stations"`

	// Site enrichment, set only when reverse geocoding is enabled.
	SiteName    string `json:"site_name,omitempty"`
	SiteAddress string `json:"site_address,omitempty"`
}
