package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawToBandThresholds(t *testing.T) {
	tests := []struct {
		raw  int
		want float64
	}{
		{40, 9.0},
		{38, 9.0},  // 0.95 inclusive
		{37, 8.5},  // 0.925
		{36, 8.5},  // 0.90 inclusive
		{34, 8.0},  // 0.85 inclusive
		{32, 7.5},  // 0.80 inclusive
		{30, 7.0},  // 0.75 inclusive
		{28, 6.5},  // 0.70 inclusive
		{24, 6.0},  // 0.60 inclusive
		{22, 5.5},  // 0.55
		{20, 5.5},  // 0.50 inclusive
		{16, 5.0},  // 0.40 inclusive
		{12, 4.5},  // 0.30 inclusive
		{11, 4.0},  // below every threshold
		{0, 4.0},
	}
	for _, tt := range tests {
		got, err := RawToBand(tt.raw, 40)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "raw=%d", tt.raw)
	}
}

func TestRawToBandShortTest(t *testing.T) {
	// 3 of 4 correct is pct 0.75 regardless of test length.
	got, err := RawToBand(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestRawToBandMonotonic(t *testing.T) {
	const total = 40
	prev := -1.0
	for raw := 0; raw <= total; raw++ {
		band, err := RawToBand(raw, total)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, band, prev, "band dropped at raw=%d", raw)
		prev = band
	}
}

func TestRawToBandInvalidInput(t *testing.T) {
	_, err := RawToBand(0, 0)
	assert.Error(t, err)

	_, err = RawToBand(-1, 40)
	assert.Error(t, err)

	_, err = RawToBand(41, 40)
	assert.Error(t, err)
}
