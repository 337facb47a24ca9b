package domain

import (
	"fmt"
	"sort"
)

// Defaults for members missing from a station/emission slot.
const (
	DefaultStationClass     = "FX"
	DefaultTransmitterPower = 1.0
)

// Correlation pairs the station-class, transmitter-power and ERP repeat
// groups of a record into StationEmissionGroups. Transmitter powers that fail
// to decode are replaced by DefaultTransmitterPower and reported as fallbacks.
type Correlation interface {
	Correlate(fields RawFieldRecord) ([]StationEmissionGroup, []Fallback)
}

// PositionalCorrelation zips the three repeat groups by list position,
// ignoring occurrence indices. The result has as many entries as the longest
// group.
type PositionalCorrelation struct{}

func (PositionalCorrelation) Correlate(fields RawFieldRecord) ([]StationEmissionGroup, []Fallback) {
	classes := fields.occurrences(LabelStationClass)
	powers := fields.occurrences(LabelTransmitterPower)
	erps := fields.occurrences(LabelEffectiveRadiatedPower)

	n := max(len(classes), len(powers), len(erps))
	groups := make([]StationEmissionGroup, 0, n)
	var fallbacks []Fallback
	for i := range n {
		g, fb := buildGroup(at(classes, i), at(powers, i), at(erps, i))
		groups = append(groups, g)
		if fb != nil {
			fallbacks = append(fallbacks, *fb)
		}
	}
	return groups, fallbacks
}

// IndexedCorrelation aligns the three repeat groups by occurrence index, so
// STATION CLASS[02] pairs only with TRANSMITTER POWER[02] and
// EFFECTIVE RADIATED POWER[02]. Indices missing from every group produce no
// entry.
type IndexedCorrelation struct{}

func (IndexedCorrelation) Correlate(fields RawFieldRecord) ([]StationEmissionGroup, []Fallback) {
	classes := byIndex(fields.occurrences(LabelStationClass))
	powers := byIndex(fields.occurrences(LabelTransmitterPower))
	erps := byIndex(fields.occurrences(LabelEffectiveRadiatedPower))

	seen := make(map[int]struct{})
	for _, m := range []map[int]occurrence{classes, powers, erps} {
		for idx := range m {
			seen[idx] = struct{}{}
		}
	}
	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	groups := make([]StationEmissionGroup, 0, len(indices))
	var fallbacks []Fallback
	for _, idx := range indices {
		g, fb := buildGroup(lookup(classes, idx), lookup(powers, idx), lookup(erps, idx))
		groups = append(groups, g)
		if fb != nil {
			fallbacks = append(fallbacks, *fb)
		}
	}
	return groups, fallbacks
}

func buildGroup(class, power, erp *occurrence) (StationEmissionGroup, *Fallback) {
	g := StationEmissionGroup{
		StationClass:     DefaultStationClass,
		TransmitterPower: DefaultTransmitterPower,
	}
	if class != nil {
		g.StationClass = class.value
	}
	if erp != nil {
		g.EffectiveRadiatedPower = NewERP(erp.value)
	}
	if power == nil {
		return g, nil
	}
	w, err := DecodePower(power.value)
	if err != nil {
		return g, &Fallback{
			Kind:  FallbackPower,
			Field: power.key,
			Err:   fmt.Errorf("using %g W: %w", DefaultTransmitterPower, err),
		}
	}
	g.TransmitterPower = w
	return g, nil
}

func at(occ []occurrence, i int) *occurrence {
	if i >= len(occ) {
		return nil
	}
	return &occ[i]
}

func byIndex(occ []occurrence) map[int]occurrence {
	m := make(map[int]occurrence, len(occ))
	for _, o := range occ {
		m[o.index] = o
	}
	return m
}

func lookup(m map[int]occurrence, idx int) *occurrence {
	o, ok := m[idx]
	if !ok {
		return nil
	}
	return &o
}
