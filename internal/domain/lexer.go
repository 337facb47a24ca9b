package domain

import (
	"fmt"
	"strings"
)

const (
	// TagRecordOpen starts a record.
	TagRecordOpen = "005"
	// TagRecordClose ends a record.
	TagRecordClose = "924"

	// delimiter separates a tag from its value: a period followed by five spaces.
	delimiter = ".     "
	tagLength = 3
)

// Field labels used as RawFieldRecord keys. Repeatable labels are stored with
// an occurrence suffix, see IndexedKey.
const (
	LabelTypeOfAction                   = "TYPE OF ACTION"
	LabelAgencySerial                   = "AGENCY SERIAL NUMBER"
	LabelListSerial                     = "LIST SERIAL NUMBER"
	LabelFrequency                      = "FREQUENCY"
	LabelExcludedFrequencyBand          = "EXCLUDED FREQUENCY BAND"
	LabelStationClass                   = "STATION CLASS"
	LabelEmissionDesignator             = "EMISSION DESIGNATOR"
	LabelTransmitterPower               = "TRANSMITTER POWER"
	LabelEffectiveRadiatedPower         = "EFFECTIVE RADIATED POWER"
	LabelRequiredDate                   = "REQUIRED DATE (YYYYMMDD)"
	LabelExpirationDate                 = "EXPIRATION DATE (YYYYMMDD)"
	LabelReviewDate                     = "REVIEW DATE (YYYYMMDD)"
	LabelAgency                         = "AGENCY"
	LabelBureau                         = "BUREAU"
	LabelCommand                        = "COMMAND"
	LabelSubcommand                     = "SUBCOMMAND"
	LabelInstallationFrequencyManager   = "INSTALLATION FREQUENCY MANAGER"
	LabelOperatingUnit                  = "OPERATING UNIT"
	LabelUserNetCode                    = "USER NET/CODE"
	LabelTxAntennaCoordinates           = "TX ANTENNA COORDINATES"
	LabelTxAuthorizedRadius             = "TX AUTHORIZED RADIUS"
	LabelEquipmentNomenclature          = "EQUIPMENT NOMENCLATURE"
	LabelPulseDuration                  = "PULSE DURATION"
	LabelPulseRepetitionRate            = "PULSE REPETITION RATE"
	LabelAntennaGain                    = "ANTENNA GAIN"
	LabelTxAntennaFeedpointHeight       = "TX ANTENNA FEEDPOINT HEIGHT"
	LabelMajorFunctionIdentifier        = "MAJOR FUNCTION IDENTIFIER"
	LabelIntermediateFunctionIdentifier = "INTERMEDIATE FUNCTION IDENTIFIER"
)

type tagSpec struct {
	label    string
	repeated bool
}

// tags lists every value-bearing tag the lexer recognizes.
var tags = map[string]tagSpec{
	"010": {label: LabelTypeOfAction},
	"102": {label: LabelAgencySerial},
	"105": {label: LabelListSerial},
	"110": {label: LabelFrequency},
	"111": {label: LabelExcludedFrequencyBand, repeated: true},
	"113": {label: LabelStationClass, repeated: true},
	"114": {label: LabelEmissionDesignator, repeated: true},
	"115": {label: LabelTransmitterPower, repeated: true},
	"117": {label: LabelEffectiveRadiatedPower, repeated: true},
	"140": {label: LabelRequiredDate},
	"141": {label: LabelExpirationDate},
	"142": {label: LabelReviewDate},
	"200": {label: LabelAgency},
	"203": {label: LabelBureau},
	"204": {label: LabelCommand},
	"205": {label: LabelSubcommand},
	"206": {label: LabelInstallationFrequencyManager},
	"207": {label: LabelOperatingUnit, repeated: true},
	"208": {label: LabelUserNetCode, repeated: true},
	"303": {label: LabelTxAntennaCoordinates},
	"306": {label: LabelTxAuthorizedRadius},
	"340": {label: LabelEquipmentNomenclature},
	"346": {label: LabelPulseDuration},
	"347": {label: LabelPulseRepetitionRate},
	"357": {label: LabelAntennaGain},
	"359": {label: LabelTxAntennaFeedpointHeight},
	"511": {label: LabelMajorFunctionIdentifier},
	"512": {label: LabelIntermediateFunctionIdentifier},
}

// LineTag returns the leading 3-character tag of line and whether it is a
// sentinel or a recognized value-bearing tag.
func LineTag(line string) (string, bool) {
	if len(line) < tagLength {
		return "", false
	}
	tag := line[:tagLength]
	if tag == TagRecordOpen || tag == TagRecordClose {
		return tag, true
	}
	_, ok := tags[tag]
	return tag, ok
}

// LexLine returns the tag of a value-bearing line and the text after the
// delimiter with surrounding whitespace removed. Lines whose tag is unknown,
// or that lack the delimiter, fail with ErrMalformedLine.
func LexLine(line string) (tag, value string, err error) {
	tag, ok := LineTag(line)
	if !ok || tag == TagRecordOpen || tag == TagRecordClose {
		return "", "", fmt.Errorf("%w: no value-bearing tag in %q", ErrMalformedLine, line)
	}
	_, rest, found := strings.Cut(line[tagLength:], delimiter)
	if !found {
		return tag, "", fmt.Errorf("%w: tag %s has no %q delimiter", ErrMalformedLine, tag, delimiter)
	}
	return tag, strings.TrimSpace(rest), nil
}

// TagLabel returns the field label for a value-bearing tag and whether the
// tag belongs to a repeat group.
func TagLabel(tag string) (label string, repeated bool, ok bool) {
	spec, ok := tags[tag]
	return spec.label, spec.repeated, ok
}

// IndexedKey formats the RawFieldRecord key of the n-th occurrence of a
// repeatable field, e.g. IndexedKey("STATION CLASS", 1) = "STATION CLASS[01]".
func IndexedKey(label string, n int) string {
	return fmt.Sprintf("%s[%02d]", label, n)
}
