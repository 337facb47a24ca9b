package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTag(t *testing.T) {
	tests := []struct {
		line    string
		wantTag string
		wantOK  bool
	}{
		{"005.     UE", "005", true},
		{"924.     ", "924", true},
		{"110.     M138.025", "110", true},
		{"113.     FB", "113", true},
		{"999.     whatever", "999", false},
		{"hello world", "hel", false},
		{"11", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tag, ok := LineTag(tt.line)
			assert.Equal(t, tt.wantTag, tag)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestLexLine(t *testing.T) {
	t.Run("value trimmed", func(t *testing.T) {
		tag, value, err := LexLine("110.     M138.025   ")
		require.NoError(t, err)
		assert.Equal(t, "110", tag)
		assert.Equal(t, "M138.025", value)
	})

	t.Run("value keeps inner spaces", func(t *testing.T) {
		_, value, err := LexLine("340.     G,AN/PRC-117G  V1")
		require.NoError(t, err)
		assert.Equal(t, "G,AN/PRC-117G  V1", value)
	})

	t.Run("empty value", func(t *testing.T) {
		_, value, err := LexLine("205.     ")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("missing delimiter", func(t *testing.T) {
		tag, _, err := LexLine("110 M138.025")
		require.ErrorIs(t, err, ErrMalformedLine)
		assert.Equal(t, "110", tag)
	})

	t.Run("short delimiter", func(t *testing.T) {
		_, _, err := LexLine("110.  M138.025")
		require.ErrorIs(t, err, ErrMalformedLine)
	})

	t.Run("sentinel is not value-bearing", func(t *testing.T) {
		_, _, err := LexLine("005.     UE")
		require.ErrorIs(t, err, ErrMalformedLine)
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, _, err := LexLine("999.     x")
		require.ErrorIs(t, err, ErrMalformedLine)
	})
}

func TestTagLabel(t *testing.T) {
	label, repeated, ok := TagLabel("113")
	require.True(t, ok)
	assert.Equal(t, LabelStationClass, label)
	assert.True(t, repeated)

	label, repeated, ok = TagLabel("102")
	require.True(t, ok)
	assert.Equal(t, LabelAgencySerial, label)
	assert.False(t, repeated)

	_, _, ok = TagLabel("924")
	assert.False(t, ok)
}

func TestIndexedKey(t *testing.T) {
	assert.Equal(t, "STATION CLASS[01]", IndexedKey(LabelStationClass, 1))
	assert.Equal(t, "USER NET/CODE[12]", IndexedKey(LabelUserNetCode, 12))
}
