package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalRadar/internal/ports"
)

func TestATR(t *testing.T) {
	tests := []struct {
		name        string
		highs       []float64
		lows        []float64
		closes      []float64
		period      int
		expected    float64
		expectError bool
	}{
		{
			name:     "constant price series yields zero",
			highs:    []float64{100, 100, 100, 100, 100},
			lows:     []float64{100, 100, 100, 100, 100},
			closes:   []float64{100, 100, 100, 100, 100},
			period:   3,
			expected: 0,
		},
		{
			name:   "mean of the last period true ranges",
			highs:  []float64{11, 12, 13, 14, 15},
			lows:   []float64{9, 10, 11, 12, 13},
			closes: []float64{10, 11, 12, 13, 14},
			period: 3,
			// Every TR is max(2, |h-prevClose|=2, |l-prevClose|=1) = 2.
			expected: 2,
		},
		{
			name:   "gap beyond the bar range uses previous close",
			highs:  []float64{11, 20, 13},
			lows:   []float64{9, 18, 11},
			closes: []float64{10, 19, 12},
			period: 2,
			// TR1 = max(2, |20-10|, |18-10|) = 10; TR2 = max(2, |13-19|, |11-19|) = 8.
			expected: 9,
		},
		{
			name:        "length mismatch",
			highs:       []float64{1, 2, 3},
			lows:        []float64{1, 2},
			closes:      []float64{1, 2, 3},
			period:      2,
			expectError: true,
		},
		{
			name:        "insufficient data",
			highs:       []float64{1, 2, 3},
			lows:        []float64{1, 2, 3},
			closes:      []float64{1, 2, 3},
			period:      3,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ATR(tt.highs, tt.lows, tt.closes, tt.period)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrInsufficientData)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}
