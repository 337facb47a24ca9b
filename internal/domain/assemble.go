package domain

import (
	"fmt"
)

// UnknownSerial is reported for records without an agency serial number.
const UnknownSerial = "UNKNOWN"

// FallbackKind names a field that was replaced by a default value.
type FallbackKind string

const (
	FallbackBandwidth   FallbackKind = "bandwidth"
	FallbackCoordinates FallbackKind = "coordinates"
	FallbackPower       FallbackKind = "transmitter_power"
	FallbackDate        FallbackKind = "date"
)

// Fallback describes one non-fatal decode failure that was replaced by a
// default value.
type Fallback struct {
	Kind  FallbackKind
	Field string
	Err   error
}

// Outcome is the result of assembling one raw record: either an accepted
// NormalizedRecord or a drop with a reason.
type Outcome struct {
	Ordinal   int
	Serial    string
	Record    NormalizedRecord
	Drop      *DropError
	Fallbacks []Fallback
}

// Accepted reports whether the outcome carries a record.
func (o Outcome) Accepted() bool { return o.Drop == nil }

// Dropped builds a drop outcome for the raw record at ordinal.
func Dropped(ordinal int, serial string, reason DropReason, err error) Outcome {
	return Outcome{
		Ordinal: ordinal,
		Serial:  serial,
		Drop:    &DropError{Reason: reason, Err: err},
	}
}

// SerialOf returns the agency serial of fields, or UnknownSerial.
func SerialOf(fields RawFieldRecord) string {
	if s, ok := fields.Get(LabelAgencySerial); ok && s != "" && s != missingValue {
		return s
	}
	return UnknownSerial
}

// Assembler turns raw records into normalized records.
type Assembler struct {
	correlation Correlation
}

// NewAssembler returns an Assembler using c to build station groups. A nil
// Correlation selects PositionalCorrelation.
func NewAssembler(c Correlation) *Assembler {
	if c == nil {
		c = PositionalCorrelation{}
	}
	return &Assembler{correlation: c}
}

// Assemble validates raw and produces its Outcome. Only an unusable center
// frequency or a missing first emission designator drop the record; every
// other decode failure is recorded as a Fallback.
func (a *Assembler) Assemble(raw RawRecord) Outcome {
	fields := raw.Fields.Clean()
	serial := SerialOf(fields)

	freqText, ok := fields.Get(LabelFrequency)
	if !ok {
		return Dropped(raw.Ordinal, serial, DropZeroFrequency,
			fmt.Errorf("%w: %s", ErrMissingRequiredField, LabelFrequency))
	}
	freq, err := DecodeFrequency(freqText)
	if err != nil {
		return Dropped(raw.Ordinal, serial, DropZeroFrequency, err)
	}
	if freq.Center == 0 {
		return Dropped(raw.Ordinal, serial, DropZeroFrequency,
			fmt.Errorf("%w: %q", ErrZeroFrequency, freqText))
	}

	designatorKey := IndexedKey(LabelEmissionDesignator, 1)
	designator, ok := fields.Get(designatorKey)
	if !ok {
		return Dropped(raw.Ordinal, serial, DropMissingEmissionDesignator,
			fmt.Errorf("%w: %s", ErrMissingRequiredField, designatorKey))
	}

	out := Outcome{Ordinal: raw.Ordinal, Serial: serial}

	bandwidth, fallback := DecodeBandwidth(designator)
	if fallback {
		out.Fallbacks = append(out.Fallbacks, Fallback{
			Kind:  FallbackBandwidth,
			Field: designatorKey,
			Err:   fmt.Errorf("unparseable emission designator %q, using %g Hz", designator, DefaultBandwidth),
		})
	}

	var coords Coordinates
	if text, ok := fields.Get(LabelTxAntennaCoordinates); !ok {
		out.Fallbacks = append(out.Fallbacks, Fallback{
			Kind:  FallbackCoordinates,
			Field: LabelTxAntennaCoordinates,
			Err:   fmt.Errorf("%w: field absent, using origin", ErrInvalidCoordinate),
		})
	} else if coords, err = DecodeCoordinates(text); err != nil {
		coords = Coordinates{}
		out.Fallbacks = append(out.Fallbacks, Fallback{
			Kind:  FallbackCoordinates,
			Field: LabelTxAntennaCoordinates,
			Err:   fmt.Errorf("using origin: %w", err),
		})
	}

	stations, powerFallbacks := a.correlation.Correlate(fields)
	if stations == nil {
		stations = []StationEmissionGroup{}
	}
	out.Fallbacks = append(out.Fallbacks, powerFallbacks...)

	serialText := fields.Value(LabelAgencySerial)
	out.Record = NormalizedRecord{
		Name:                           serialText,
		AgencySerial:                   serialText,
		ListSerial:                     fields.Value(LabelListSerial),
		TypeOfAction:                   fields.Value(LabelTypeOfAction),
		CenterFrequency:                freq.Center,
		ReferenceFrequency:             freq.Reference,
		Bandwidth:                      bandwidth,
		Latitude:                       coords.Latitude,
		Longitude:                      coords.Longitude,
		Agency:                         fields.Value(LabelAgency),
		Bureau:                         fields.Value(LabelBureau),
		Command:                        fields.Value(LabelCommand),
		Subcommand:                     fields.Value(LabelSubcommand),
		InstallationFrequencyManager:   fields.Value(LabelInstallationFrequencyManager),
		UserNet:                        fields.Value(IndexedKey(LabelUserNetCode, 1)),
		MajorFunctionIdentifier:        fields.Value(LabelMajorFunctionIdentifier),
		IntermediateFunctionIdentifier: fields.Value(LabelIntermediateFunctionIdentifier),
		EquipmentNomenclature:          fields.Value(LabelEquipmentNomenclature),
		PulseDuration:                  fields.Value(LabelPulseDuration),
		PulseRepetitionRate:            fields.Value(LabelPulseRepetitionRate),
		AntennaGain:                    fields.Value(LabelAntennaGain),
		TransmitterPower:               fields.Value(IndexedKey(LabelTransmitterPower, 1)),
		TxAuthorizedRadius:             fields.Value(LabelTxAuthorizedRadius),
		TxAntennaFeedpointHeight:       fields.Value(LabelTxAntennaFeedpointHeight),
		Stations:                       stations,
	}

	dates := []struct {
		label string
		dst   *string
	}{
		{LabelRequiredDate, &out.Record.RequiredDate},
		{LabelExpirationDate, &out.Record.ExpirationDate},
		{LabelReviewDate, &out.Record.ReviewDate},
	}
	for _, d := range dates {
		text, ok := fields.Get(d.label)
		if !ok {
			continue
		}
		iso, err := DecodeDate(text)
		if err != nil {
			out.Fallbacks = append(out.Fallbacks, Fallback{Kind: FallbackDate, Field: d.label, Err: err})
			continue
		}
		*d.dst = iso
	}

	return out
}
