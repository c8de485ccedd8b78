// Package sqlite stores notes in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - notes table with modified_at index
const currentSchemaVersion = 1

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path   string // database file, or ":memory:"
	Logger *slog.Logger
	Clock  func() time.Time
}

// Repository implements core.Repository on top of SQLite.
// Uses WAL mode and a single connection, so writes are serialized.
type Repository struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	clock  func() time.Time

	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextSub     int

	openHandles atomic.Int64
}

// Open creates or opens the database at cfg.Path and applies pragmas.
// The schema is applied by Initialize.
func Open(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	db, err := sql.Open(DriverName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Repository{
		db:          db,
		path:        cfg.Path,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		subscribers: make(map[int]*subscriber),
	}, nil
}

// Initialize creates the schema and runs migrations. It is idempotent.
func (r *Repository) Initialize(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := r.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := r.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// Close closes the database connection and ends every watch stream.
func (r *Repository) Close() error {
	r.closeSubscribers()
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
