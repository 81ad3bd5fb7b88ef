// Package app holds the refresh orchestrator and the process-wide signal
// store it maintains.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"signalRadar/internal/domain"
	"signalRadar/internal/ports"
)

// SignalService owns the latest signal set. Each successful refresh cycle
// replaces the set wholesale, so concurrent readers always observe a complete,
// internally consistent snapshot: the previous one until the new one is
// swapped in.
type SignalService struct {
	logger    ports.Logger
	strategy  ports.SignalStrategy
	snapshots ports.SnapshotRepository

	mu          sync.RWMutex
	signals     []domain.Signal
	lastUpdated *time.Time
	lastError   *string

	refreshing sync.Mutex // held for the duration of one refresh cycle

	now func() time.Time
}

// NewSignalService creates the orchestrating service.
func NewSignalService(logger ports.Logger, strat ports.SignalStrategy, snapshots ports.SnapshotRepository) (*SignalService, error) {
	if logger == nil || strat == nil || snapshots == nil {
		return nil, fmt.Errorf("missing required dependencies for SignalService")
	}
	return &SignalService{
		logger:    logger,
		strategy:  strat,
		snapshots: snapshots,
		now:       time.Now,
	}, nil
}

// State is a read-consistent view of the store for the serving layer.
type State struct {
	Signals     []domain.Signal
	LastUpdated *time.Time
	LastError   *string
}

// State returns a copy of the current store contents.
func (s *SignalService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signals := make([]domain.Signal, len(s.signals))
	copy(signals, s.signals)
	return State{Signals: signals, LastUpdated: s.lastUpdated, LastError: s.lastError}
}

// Hydrate restores the store from the most recent persisted snapshot.
// Best-effort: a failure records lastError but never blocks startup.
func (s *SignalService) Hydrate(ctx context.Context) {
	payload, err := s.snapshots.LoadLatestSnapshot(ctx)
	if err != nil {
		s.setError(fmt.Sprintf("hydrate failed: %v", err))
		s.logger.Warn(ctx, "snapshot hydrate failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if payload == "" {
		s.logger.Info(ctx, "no persisted snapshot to hydrate from")
		return
	}

	var snap domain.SnapshotPayload
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		s.setError(fmt.Sprintf("hydrate failed: %v", err))
		s.logger.Warn(ctx, "snapshot hydrate failed", map[string]interface{}{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.signals = snap.Signals
	lu := snap.LastUpdated
	s.lastUpdated = &lu
	s.lastError = snap.Warning
	s.mu.Unlock()
	s.logger.Info(ctx, "store hydrated from snapshot", map[string]interface{}{
		"signals": len(snap.Signals), "lastUpdated": snap.LastUpdated,
	})
}

// Refresh runs one full cycle: resolve the universe, evaluate every symbol
// concurrently, swap the store wholesale and persist a snapshot. Failures
// outside the per-symbol isolation boundary leave the existing signals
// untouched and record lastError; stale-but-available beats blank.
//
// Cycles never overlap: a Refresh that finds another still in flight returns
// immediately.
func (s *SignalService) Refresh(ctx context.Context) {
	if !s.refreshing.TryLock() {
		s.logger.Warn(ctx, "refresh cycle already running, skipping")
		return
	}
	defer s.refreshing.Unlock()

	symbols, err := s.strategy.TopSymbols(ctx)
	if err != nil {
		s.setError(fmt.Sprintf("refresh failed: universe resolution: %v", err))
		s.logger.Error(ctx, err, "refresh failed resolving universe")
		return
	}

	// Fan out one evaluation per symbol. The upstream client's concurrency
	// gate is the true limiter. The engine itself never fails, so the recover
	// is a defensive fallback that keeps one bad symbol from sinking a cycle.
	signals := make([]domain.Signal, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					signals[i] = domain.Signal{
						Symbol:    symbol,
						Decision:  domain.Wait,
						Score:     10,
						UpdatedAt: s.now().UTC(),
						Reason:    fmt.Sprintf("signal error: %v", r),
					}
				}
			}()
			signals[i] = s.strategy.BuildSignal(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	updated := s.now().UTC()
	s.mu.Lock()
	s.signals = signals
	s.lastUpdated = &updated
	s.lastError = nil
	s.mu.Unlock()

	if err := s.persistSnapshot(ctx, updated, signals); err != nil {
		// Fresh data stays installed; the persistence failure is surfaced as
		// a warning alongside it.
		s.setError(fmt.Sprintf("snapshot save failed: %v", err))
		s.logger.Error(ctx, err, "snapshot save failed")
		return
	}

	s.logger.Info(ctx, "refresh cycle completed", map[string]interface{}{"signals": len(signals)})
}

// persistSnapshot appends the complete signal set to the snapshot history.
func (s *SignalService) persistSnapshot(ctx context.Context, updated time.Time, signals []domain.Signal) error {
	payload := domain.SnapshotPayload{
		LastUpdated: updated,
		Warning:     nil,
		Signals:     signals,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.snapshots.SaveSnapshot(ctx, updated, string(encoded))
}

// Run refreshes once eagerly and then on every tick of the interval until the
// context is cancelled. A tick that finds a refresh still in flight is
// skipped rather than letting cycles overlap.
func (s *SignalService) Run(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "signal refresh loop stopped")
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *SignalService) setError(msg string) {
	s.mu.Lock()
	s.lastError = &msg
	s.mu.Unlock()
}
