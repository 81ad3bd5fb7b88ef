package ports

import (
	"context"
	"time"

	"signalRadar/internal/domain"
)

// SnapshotRepository stores complete signal-set snapshots as an append-only
// history. Only the most recent snapshot is ever read back.
type SnapshotRepository interface {
	// SaveSnapshot appends a snapshot row with its creation time and the
	// serialized payload.
	SaveSnapshot(ctx context.Context, createdAt time.Time, payloadJSON string) error
	// LoadLatestSnapshot returns the newest snapshot payload, or "" and no
	// error when the history is empty.
	LoadLatestSnapshot(ctx context.Context) (string, error)
}

// PositionRepository stores the manually managed position ledger, one row per
// symbol.
type PositionRepository interface {
	// UpsertPosition inserts or replaces the ledger row for pos.Symbol.
	UpsertPosition(ctx context.Context, pos domain.Position) error
	// DeletePosition removes the ledger row for the symbol, if present.
	DeletePosition(ctx context.Context, symbol string) error
	// ListPositions returns all ledger rows, most recently opened first.
	ListPositions(ctx context.Context) ([]domain.Position, error)
}
