package ports

import (
	"context"

	"signalRadar/internal/domain"
)

// SignalStrategy selects the symbol universe and evaluates signals for it.
// BuildSignal never returns an error: every failure inside the evaluation
// pipeline resolves to a WAIT signal carrying a diagnostic reason.
type SignalStrategy interface {
	// TopSymbols returns the ordered universe to evaluate this cycle.
	TopSymbols(ctx context.Context) ([]string, error)
	// BuildSignal evaluates one symbol and always produces a Signal.
	BuildSignal(ctx context.Context, symbol string) domain.Signal
}
