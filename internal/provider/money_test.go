package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"10.50", 1050, false},
		{"0.20", 20, false},
		{"-0.20", -20, false},
		{"50", 5000, false},
		{"-50", -5000, false},
		{"0", 0, false},
		{"0.5", 50, false},
		{".5", 50, false},
		{"+1.25", 125, false},
		{"", 0, true},
		{"-", 0, true},
		{".", 0, true},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"10.xy", 0, true},
		{"3.5x", 0, true},
		{"1e5", 0, true},
		{"12abc", 0, true},
		{"1.2x", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "10.50", FormatCents(1050))
	assert.Equal(t, "0.20", FormatCents(20))
	assert.Equal(t, "-0.20", FormatCents(-20))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "50.12", FormatCents(5012))
	assert.Equal(t, "-1.05", FormatCents(-105))
}

func TestParseFormatRoundtrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 5012, -20, -5012} {
		got, err := ParseDecimalToCents(FormatCents(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}
