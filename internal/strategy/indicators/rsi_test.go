package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalRadar/internal/ports"
)

func TestRSI(t *testing.T) {
	tests := []struct {
		name        string
		values      []float64
		period      int
		expected    float64
		exact       bool
		expectError bool
	}{
		{
			name:     "all increasing yields 100",
			values:   []float64{100, 101, 102, 103, 104, 105},
			period:   3,
			expected: 100,
			exact:    true,
		},
		{
			name:     "all decreasing yields 0",
			values:   []float64{105, 104, 103, 102, 101, 100},
			period:   3,
			expected: 0,
			exact:    true,
		},
		{
			name:   "mixed series with Wilder smoothing",
			values: []float64{100, 102, 101, 103, 102, 104},
			period: 3,
			// seed: gains (2+2)/3, losses 1/3 over first three deltas; two
			// smoothing steps for the remaining deltas.
			expected: 77.272727,
		},
		{
			name:        "insufficient data",
			values:      []float64{1, 2, 3},
			period:      3,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RSI(tt.values, tt.period)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrInsufficientData)
				return
			}
			require.NoError(t, err)
			if tt.exact {
				assert.Equal(t, tt.expected, got)
			} else {
				assert.InDelta(t, tt.expected, got, 1e-4)
			}
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}
