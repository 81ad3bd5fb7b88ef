// Package sqlite implements the snapshot and position repositories on an
// embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"signalRadar/internal/domain"
	"signalRadar/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.SnapshotRepository and ports.PositionRepository.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/app.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency between the refresh writer and API readers.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1) // The Go driver benefits from a single connection to SQLite
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signals_snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		payload_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS positions (
		symbol TEXT PRIMARY KEY,
		opened_at TEXT NOT NULL,
		entry_price REAL,
		note TEXT
	);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- SnapshotRepository Implementation ---

// SaveSnapshot appends a snapshot row. History rows are never updated.
func (r *Repository) SaveSnapshot(ctx context.Context, createdAt time.Time, payloadJSON string) error {
	const query = `INSERT INTO signals_snapshot (created_at, payload_json) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, createdAt.UTC().Format(time.RFC3339Nano), payloadJSON); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w: %w", ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "snapshot saved", map[string]interface{}{"createdAt": createdAt})
	return nil
}

// LoadLatestSnapshot returns the newest snapshot payload, or "" when the
// history is empty.
func (r *Repository) LoadLatestSnapshot(ctx context.Context) (string, error) {
	const query = `SELECT payload_json FROM signals_snapshot ORDER BY id DESC LIMIT 1`
	var payload string
	err := r.db.QueryRowContext(ctx, query).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load latest snapshot: %w: %w", ports.ErrQueryFailed, err)
	}
	return payload, nil
}

// --- PositionRepository Implementation ---

// UpsertPosition inserts or replaces the ledger row for pos.Symbol.
func (r *Repository) UpsertPosition(ctx context.Context, pos domain.Position) error {
	const query = `
	INSERT INTO positions (symbol, opened_at, entry_price, note)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(symbol) DO UPDATE SET
		opened_at = excluded.opened_at,
		entry_price = excluded.entry_price,
		note = excluded.note`

	var entryPrice sql.NullFloat64
	if pos.EntryPrice != nil {
		entryPrice = sql.NullFloat64{Float64: *pos.EntryPrice, Valid: true}
	}
	var note sql.NullString
	if pos.Note != nil {
		note = sql.NullString{String: *pos.Note, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, pos.Symbol, pos.OpenedAt.UTC().Format(time.RFC3339Nano), entryPrice, note); err != nil {
		return fmt.Errorf("failed to upsert position for %s: %w: %w", pos.Symbol, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "position upserted", map[string]interface{}{"symbol": pos.Symbol})
	return nil
}

// DeletePosition removes the ledger row for the symbol, if present.
func (r *Repository) DeletePosition(ctx context.Context, symbol string) error {
	const query = `DELETE FROM positions WHERE symbol = ?`
	if _, err := r.db.ExecContext(ctx, query, symbol); err != nil {
		return fmt.Errorf("failed to delete position for %s: %w: %w", symbol, ports.ErrDeleteFailed, err)
	}
	r.logger.Debug(ctx, "position deleted", map[string]interface{}{"symbol": symbol})
	return nil
}

// ListPositions returns all ledger rows, most recently opened first.
func (r *Repository) ListPositions(ctx context.Context) ([]domain.Position, error) {
	const query = `SELECT symbol, opened_at, entry_price, note FROM positions ORDER BY opened_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	positions := make([]domain.Position, 0)
	for rows.Next() {
		var (
			pos        domain.Position
			openedAt   string
			entryPrice sql.NullFloat64
			note       sql.NullString
		)
		if err := rows.Scan(&pos.Symbol, &openedAt, &entryPrice, &note); err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w: %w", ports.ErrQueryFailed, err)
		}
		t, err := time.Parse(time.RFC3339Nano, openedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse opened_at %q: %w", openedAt, err)
		}
		pos.OpenedAt = t
		if entryPrice.Valid {
			pos.EntryPrice = &entryPrice.Float64
		}
		if note.Valid {
			pos.Note = &note.String
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return positions, nil
}
