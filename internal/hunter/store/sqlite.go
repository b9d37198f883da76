package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/hashicorp/go-multierror"
	_ "modernc.org/sqlite"
)

const sqliteInsert = insertColumns + ` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLite stores everything in a single database file, meant for single host or offline use
type SQLite struct {
	path        string
	busyTimeout time.Duration
}

func NewSQLite(path string, busyTimeout time.Duration) *SQLite {
	return &SQLite{path: path, busyTimeout: busyTimeout}
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, err
	}

	// Savepoints are bound to the connection, keep a single one
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", s.busyTimeout.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	return db, nil
}

func (s *SQLite) Connect(ctx context.Context) (Conn, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	return &sqliteConn{db: db}, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	sourceFS, err := migrationSource("sqlite")
	if err != nil {
		return err
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	return runMigrationsUp(s.Name(), dbDriver, sourceFS)
}

type sqliteConn struct {
	db *sql.DB
}

func (c *sqliteConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqliteConn) InsertBatch(ctx context.Context, entries []LogEntry) (BatchResult, error) {
	var res BatchResult

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return BatchResult{}, fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback()
	}()

	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT entry"); err != nil {
			return BatchResult{}, fmt.Errorf("savepoint: %w", err)
		}

		args := entry.args()
		// modernc stores time.Time as text, keep it sortable
		args[0] = entry.Time.UTC().Format(time.RFC3339Nano)

		if _, err := tx.ExecContext(ctx, sqliteInsert, args...); err != nil {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT entry"); rbErr != nil {
				return BatchResult{}, fmt.Errorf("rollback to savepoint: %w", rbErr)
			}
			// Rolling back keeps the savepoint open
			if _, rbErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT entry"); rbErr != nil {
				return BatchResult{}, fmt.Errorf("release savepoint: %w", rbErr)
			}
			res.RowErrors = multierror.Append(res.RowErrors, fmt.Errorf("row %d: %w", i, err))
			continue
		}

		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT entry"); err != nil {
			return BatchResult{}, fmt.Errorf("release savepoint: %w", err)
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, fmt.Errorf("commit batch: %w", err)
	}

	return res, nil
}

func (c *sqliteConn) Close(_ context.Context) error {
	return c.db.Close()
}
