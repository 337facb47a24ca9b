package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionalCorrelation(t *testing.T) {
	t.Run("equal lengths", func(t *testing.T) {
		fields := RawFieldRecord{
			"STATION CLASS[01]":            "FB",
			"STATION CLASS[02]":            "ML",
			"TRANSMITTER POWER[01]":        "W50",
			"TRANSMITTER POWER[02]":        "K1.5",
			"EFFECTIVE RADIATED POWER[01]": "W120",
			"EFFECTIVE RADIATED POWER[02]": "W3000",
		}
		got, fallbacks := PositionalCorrelation{}.Correlate(fields)
		want := []StationEmissionGroup{
			{StationClass: "FB", TransmitterPower: 50, EffectiveRadiatedPower: NewERP("W120")},
			{StationClass: "ML", TransmitterPower: 1500, EffectiveRadiatedPower: NewERP("W3000")},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("groups mismatch (-want +got):\n%s", diff)
		}
		assert.Empty(t, fallbacks)
	})

	t.Run("unequal lengths get defaults", func(t *testing.T) {
		fields := RawFieldRecord{
			"STATION CLASS[01]":     "FB",
			"TRANSMITTER POWER[01]": "W10",
			"TRANSMITTER POWER[02]": "W20",
			"TRANSMITTER POWER[03]": "W30",
		}
		got, _ := PositionalCorrelation{}.Correlate(fields)
		want := []StationEmissionGroup{
			{StationClass: "FB", TransmitterPower: 10},
			{StationClass: DefaultStationClass, TransmitterPower: 20},
			{StationClass: DefaultStationClass, TransmitterPower: 30},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("groups mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("gapped indices zip by position", func(t *testing.T) {
		fields := RawFieldRecord{
			"STATION CLASS[02]":     "ML",
			"TRANSMITTER POWER[01]": "W10",
		}
		got, _ := PositionalCorrelation{}.Correlate(fields)
		require.Len(t, got, 1)
		assert.Equal(t, "ML", got[0].StationClass)
		assert.Equal(t, 10.0, got[0].TransmitterPower)
	})

	t.Run("bad power falls back", func(t *testing.T) {
		fields := RawFieldRecord{
			"STATION CLASS[01]":     "FB",
			"TRANSMITTER POWER[01]": "X5",
		}
		got, fallbacks := PositionalCorrelation{}.Correlate(fields)
		require.Len(t, got, 1)
		assert.Equal(t, DefaultTransmitterPower, got[0].TransmitterPower)
		require.Len(t, fallbacks, 1)
		assert.Equal(t, FallbackPower, fallbacks[0].Kind)
		assert.Equal(t, "TRANSMITTER POWER[01]", fallbacks[0].Field)
		require.ErrorIs(t, fallbacks[0].Err, ErrInvalidPower)
	})

	t.Run("no groups", func(t *testing.T) {
		got, fallbacks := PositionalCorrelation{}.Correlate(RawFieldRecord{})
		assert.Empty(t, got)
		assert.Empty(t, fallbacks)
	})
}

func TestIndexedCorrelation(t *testing.T) {
	fields := RawFieldRecord{
		"STATION CLASS[02]":            "ML",
		"TRANSMITTER POWER[01]":        "W10",
		"EFFECTIVE RADIATED POWER[02]": "W99",
	}
	got, fallbacks := IndexedCorrelation{}.Correlate(fields)
	want := []StationEmissionGroup{
		{StationClass: DefaultStationClass, TransmitterPower: 10},
		{StationClass: "ML", TransmitterPower: DefaultTransmitterPower, EffectiveRadiatedPower: NewERP("W99")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, fallbacks)
}
