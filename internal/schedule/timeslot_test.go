package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"9h5", "9:05"},
		{"14h30", "14:30"},
		{"0h0", "0:00"},
		{"09h00", "9:00"},
		{" 14 h 30 ", "14:30"},
		{"14H30", "14:30"},
		{"14:30", "14:30"},
		{"9:5", "9:05"},
		{" 9 : 00 ", "9:00"},
		{"7h45", "7:45"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := FormatTime(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTime_Malformed(t *testing.T) {
	for _, raw := range []string{"abc", "14h30h", "h30", "14h", "meio-dia", "14h3O", "9h:30", "9:30:00"} {
		t.Run(raw, func(t *testing.T) {
			_, err := FormatTime(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTimeLabel))
		})
	}
}

func TestParseSlot(t *testing.T) {
	h, m, err := ParseSlot("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	_, _, err = ParseSlot("905")
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"João**":  "João",
		"João":    "João",
		" Ana ":   "Ana",
		"Bia ** ": "Bia",
		"***":     "*",
	}
	for in, want := range tests {
		got := NormalizeName(in)
		assert.Equal(t, want, got, "NormalizeName(%q)", in)
		assert.Equal(t, got, NormalizeName(got), "NormalizeName is not idempotent for %q", in)
	}
}
