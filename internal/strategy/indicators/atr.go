package indicators

import (
	"fmt"
	"math"

	"signalRadar/internal/ports"
)

// ATR computes the Average True Range as the arithmetic mean of the last
// period true-range values. The three input series must have equal length.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	if len(closes) < period+1 || len(highs) != len(lows) || len(lows) != len(closes) {
		return 0, fmt.Errorf("%w for ATR(%d): have %d/%d/%d",
			ports.ErrInsufficientData, period, len(highs), len(lows), len(closes))
	}

	trs := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trs = append(trs, tr)
	}
	if len(trs) < period {
		return 0, fmt.Errorf("%w for ATR(%d): have %d true ranges", ports.ErrInsufficientData, period, len(trs))
	}

	var sum float64
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), nil
}
