package indicators

import (
	"fmt"

	"signalRadar/internal/ports"
)

// RSI computes the Relative Strength Index using Wilder's smoothing. The
// result is bounded to [0,100]; a series with no losing deltas yields 100.
func RSI(values []float64, period int) (float64, error) {
	if len(values) < period+1 {
		return 0, fmt.Errorf("%w for RSI(%d): have %d", ports.ErrInsufficientData, period, len(values))
	}

	// Seed averages from the first period deltas.
	var gains, losses float64
	for i := 1; i <= period; i++ {
		diff := values[i] - values[i-1]
		if diff >= 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder's smoothing for the remainder of the series.
	for i := period + 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}
