package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalRadar/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: nopLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSnapshots_LatestWins(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	payload, err := repo.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, payload, "empty history yields an empty payload, not an error")

	first := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSnapshot(ctx, first, `{"signals":[]}`))
	require.NoError(t, repo.SaveSnapshot(ctx, first.Add(time.Minute), `{"signals":[{"symbol":"BTCUSDT"}]}`))

	payload, err = repo.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"signals":[{"symbol":"BTCUSDT"}]}`, payload)
}

func TestPositions_Lifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	positions, err := repo.ListPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)

	entry := 64250.5
	note := "breakout retest"
	opened := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertPosition(ctx, domain.Position{
		Symbol:     "BTCUSDT",
		OpenedAt:   opened,
		EntryPrice: &entry,
		Note:       &note,
	}))
	require.NoError(t, repo.UpsertPosition(ctx, domain.Position{
		Symbol:   "ETHUSDT",
		OpenedAt: opened.Add(time.Hour),
	}))

	positions, err = repo.ListPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	// Most recently opened first.
	assert.Equal(t, "ETHUSDT", positions[0].Symbol)
	assert.Nil(t, positions[0].EntryPrice)
	assert.Nil(t, positions[0].Note)

	btc := positions[1]
	assert.Equal(t, "BTCUSDT", btc.Symbol)
	assert.True(t, btc.OpenedAt.Equal(opened))
	require.NotNil(t, btc.EntryPrice)
	assert.InDelta(t, entry, *btc.EntryPrice, 1e-9)
	require.NotNil(t, btc.Note)
	assert.Equal(t, note, *btc.Note)
}

func TestUpsertPosition_ReplacesExistingRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	opened := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	oldEntry := 100.0
	require.NoError(t, repo.UpsertPosition(ctx, domain.Position{
		Symbol: "SOLUSDT", OpenedAt: opened, EntryPrice: &oldEntry,
	}))

	newEntry := 110.0
	require.NoError(t, repo.UpsertPosition(ctx, domain.Position{
		Symbol: "SOLUSDT", OpenedAt: opened.Add(time.Hour), EntryPrice: &newEntry,
	}))

	positions, err := repo.ListPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.NotNil(t, positions[0].EntryPrice)
	assert.InDelta(t, newEntry, *positions[0].EntryPrice, 1e-9)
	assert.True(t, positions[0].OpenedAt.Equal(opened.Add(time.Hour)))
}

func TestDeletePosition(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPosition(ctx, domain.Position{
		Symbol: "BTCUSDT", OpenedAt: time.Now().UTC(),
	}))
	require.NoError(t, repo.DeletePosition(ctx, "BTCUSDT"))

	positions, err := repo.ListPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)

	// Deleting an absent symbol is not an error.
	assert.NoError(t, repo.DeletePosition(ctx, "NOPEUSDT"))
}
