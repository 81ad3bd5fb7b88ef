// Package indicators provides pure technical-indicator functions over
// chronological (oldest first) numeric series.
package indicators

import (
	"fmt"

	"signalRadar/internal/ports"
)

// EMA computes the exponential moving average of values for the given period.
// The seed is the arithmetic mean of the first period values; each subsequent
// value folds in with smoothing factor k = 2/(period+1).
func EMA(values []float64, period int) (float64, error) {
	if len(values) < period {
		return 0, fmt.Errorf("%w for EMA(%d): have %d", ports.ErrInsufficientData, period, len(values))
	}

	k := 2.0 / float64(period+1)
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	e := seed / float64(period)
	for _, v := range values[period:] {
		e = v*k + e*(1-k)
	}
	return e, nil
}
