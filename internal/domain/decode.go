package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultBandwidth is the bandwidth, in hertz, assigned when an emission
// designator cannot be parsed.
const DefaultBandwidth = 10000.0

const coordinateLength = 15

// Coordinates is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// DecodeCoordinates converts a DDMMSS[NS]DDDMMSS[EW] string to decimal degrees.
func DecodeCoordinates(s string) (Coordinates, error) {
	if len(s) != coordinateLength {
		return Coordinates{}, fmt.Errorf("%w: %q: expected %d characters, got %d", ErrInvalidCoordinate, s, coordinateLength, len(s))
	}
	lat, err := dmsToDecimal(s[0:2], s[2:4], s[4:6], s[6], 'N', 'S')
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %q: latitude: %w", ErrInvalidCoordinate, s, err)
	}
	lon, err := dmsToDecimal(s[7:10], s[10:12], s[12:14], s[14], 'E', 'W')
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %q: longitude: %w", ErrInvalidCoordinate, s, err)
	}
	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

func dmsToDecimal(deg, mins, secs string, hemi, pos, neg byte) (float64, error) {
	d, ok1 := atoiDigits(deg)
	m, ok2 := atoiDigits(mins)
	sc, ok3 := atoiDigits(secs)
	if !ok1 || !ok2 || !ok3 {
		return 0, fmt.Errorf("non-numeric component in %s%s%s", deg, mins, secs)
	}
	v := float64(d) + float64(m)/60 + float64(sc)/3600
	switch hemi {
	case pos:
		return v, nil
	case neg:
		return -v, nil
	default:
		return 0, fmt.Errorf("hemisphere %q not in %c/%c", hemi, pos, neg)
	}
}

// FormatCoordinates renders c in the 15-character DMS form read by
// DecodeCoordinates, rounded to the nearest second.
func FormatCoordinates(c Coordinates) string {
	latD, latM, latS, latH := decimalToDMS(c.Latitude, 'N', 'S')
	lonD, lonM, lonS, lonH := decimalToDMS(c.Longitude, 'E', 'W')
	return fmt.Sprintf("%02d%02d%02d%c%03d%02d%02d%c", latD, latM, latS, latH, lonD, lonM, lonS, lonH)
}

func decimalToDMS(v float64, pos, neg byte) (int, int, int, byte) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	total := int(math.Round(v * 3600))
	return total / 3600, (total % 3600) / 60, total % 60, hemi
}

// Frequency is a decoded tag 110 value in hertz.
type Frequency struct {
	Center    float64
	Reference *float64 // nil when no parenthesized reference is present
	Ranged    bool
}

// DecodeFrequency parses a frequency field. Ranged values decode with a
// Center of 0. The reference value is scaled by the primary unit.
func DecodeFrequency(s string) (Frequency, error) {
	t, ok := tokenizeFrequency(s)
	if !ok {
		return Frequency{}, fmt.Errorf("%w: %q does not match frequency grammar", ErrInvalidFrequency, s)
	}
	scale, ok := frequencyScale(t.Unit)
	if !ok {
		return Frequency{}, fmt.Errorf("%w: %q: unsupported unit %c", ErrInvalidFrequency, s, t.Unit)
	}

	f := Frequency{Ranged: t.RangeDash}
	if !t.RangeDash {
		v, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return Frequency{}, fmt.Errorf("%w: %q: %w", ErrInvalidFrequency, s, err)
		}
		f.Center = v * scale
	}
	if t.Reference != "" {
		v, err := strconv.ParseFloat(t.Reference, 64)
		if err != nil {
			return Frequency{}, fmt.Errorf("%w: %q: reference: %w", ErrInvalidFrequency, s, err)
		}
		ref := v * scale
		f.Reference = &ref
	}
	return f, nil
}

func frequencyScale(unit byte) (float64, bool) {
	switch unit {
	case 'K':
		return 1e3, true
	case 'M':
		return 1e6, true
	case 'G':
		return 1e9, true
	default:
		return 0, false
	}
}

// DecodeBandwidth extracts the occupied bandwidth in hertz from an emission
// designator. When the designator does not match the grammar it returns
// DefaultBandwidth and fallback=true.
func DecodeBandwidth(s string) (hz float64, fallback bool) {
	t, ok := tokenizeDesignator(s)
	if !ok {
		return DefaultBandwidth, true
	}
	whole, _ := strconv.Atoi(t.Whole)
	frac := 0
	if t.Fraction != "" {
		frac, _ = strconv.Atoi(t.Fraction)
	}
	return (float64(whole) + float64(frac)/100) * bandwidthScale(t.Unit), false
}

func bandwidthScale(unit byte) float64 {
	switch unit {
	case 'K':
		return 1e3
	case 'M':
		return 1e6
	case 'G':
		return 1e9
	default:
		return 1
	}
}

// DecodePower converts a W- or K-prefixed power value to watts.
func DecodePower(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidPower)
	}
	var scale float64
	switch s[0] {
	case 'W':
		scale = 1
	case 'K':
		scale = 1000
	default:
		return 0, fmt.Errorf("%w: %q: unsupported unit %c", ErrInvalidPower, s, s[0])
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s[1:]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidPower, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q: not a finite number", ErrInvalidPower, s)
	}
	return v * scale, nil
}

// DecodeDate converts YYYYMMDD to an ISO-8601 timestamp at midnight UTC.
// Only component ranges are checked, not calendar validity.
func DecodeDate(s string) (string, error) {
	if len(s) != 8 {
		return "", fmt.Errorf("%w: %q: expected 8 digits, got %d characters", ErrInvalidDate, s, len(s))
	}
	year, ok1 := atoiDigits(s[0:4])
	month, ok2 := atoiDigits(s[4:6])
	day, ok3 := atoiDigits(s[6:8])
	switch {
	case !ok1 || !ok2 || !ok3:
		return "", fmt.Errorf("%w: %q: non-numeric", ErrInvalidDate, s)
	case year < 1900 || year > 2100:
		return "", fmt.Errorf("%w: %q: year %d out of range", ErrInvalidDate, s, year)
	case month < 1 || month > 12:
		return "", fmt.Errorf("%w: %q: month %d out of range", ErrInvalidDate, s, month)
	case day < 1 || day > 31:
		return "", fmt.Errorf("%w: %q: day %d out of range", ErrInvalidDate, s, day)
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8] + "T00:00:00Z", nil
}

// atoiDigits parses s, which must be non-empty and all ASCII digits.
func atoiDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
