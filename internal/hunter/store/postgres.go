package store

import (
	"context"
	"fmt"
	"time"

	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const postgresInsert = insertColumns + ` VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`

type Postgres struct {
	dsn            string
	connectTimeout time.Duration
}

func NewPostgres(dsn string, connectTimeout time.Duration) *Postgres {
	return &Postgres{dsn: dsn, connectTimeout: connectTimeout}
}

func (p *Postgres) Name() string {
	return "postgres"
}

func (p *Postgres) config() (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(p.dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	cfg.ConnectTimeout = p.connectTimeout
	return cfg, nil
}

// Connect opens a single connection, the caller must close it
func (p *Postgres) Connect(ctx context.Context) (Conn, error) {
	cfg, err := p.config()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &postgresConn{conn: conn}, nil
}

func (p *Postgres) Migrate(ctx context.Context) error {
	cfg, err := p.config()
	if err != nil {
		return err
	}

	sourceFS, err := migrationSource("postgres")
	if err != nil {
		return err
	}

	sqlDB := stdlib.OpenDB(*cfg)
	defer func() {
		_ = sqlDB.Close()
	}()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}

	dbDriver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("failed to create pgx driver: %w", err)
	}
	defer func() {
		_ = dbDriver.Close()
	}()

	return runMigrationsUp(p.Name(), dbDriver, sourceFS)
}

type postgresConn struct {
	conn *pgx.Conn
}

func (c *postgresConn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *postgresConn) InsertBatch(ctx context.Context, entries []LogEntry) (BatchResult, error) {
	var res BatchResult

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback(context.Background())
	}()

	for i, entry := range entries {
		// Nested transactions are savepoints in pgx
		sp, err := tx.Begin(ctx)
		if err != nil {
			return BatchResult{}, fmt.Errorf("savepoint: %w", err)
		}

		if _, err := sp.Exec(ctx, postgresInsert, entry.args()...); err != nil {
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return BatchResult{}, fmt.Errorf("rollback to savepoint: %w", rbErr)
			}
			res.RowErrors = multierror.Append(res.RowErrors, fmt.Errorf("row %d: %w", i, err))
			continue
		}

		if err := sp.Commit(ctx); err != nil {
			return BatchResult{}, fmt.Errorf("release savepoint: %w", err)
		}
		res.Inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchResult{}, fmt.Errorf("commit batch: %w", err)
	}

	return res, nil
}

func (c *postgresConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
