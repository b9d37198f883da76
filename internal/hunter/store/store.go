// Package store persists decoded HFDL messages to PostgreSQL or SQLite.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/hashicorp/go-multierror"
)

const insertColumns = `INSERT INTO hfdl_logs
	(time, frequency, station_id, flight_id, aircraft_reg, lat, lon, message, snr)`

// LogEntry is one row of hfdl_logs
type LogEntry struct {
	Time        time.Time
	FrequencyHz int64
	StationID   string
	FlightID    string
	AircraftReg string
	Lat         *float64
	Lon         *float64
	// Raw hfdl JSON
	Message []byte
	SNR     float64
}

func (e LogEntry) args() []interface{} {
	return []interface{}{e.Time, e.FrequencyHz, e.StationID, e.FlightID, e.AircraftReg, e.Lat, e.Lon, string(e.Message), e.SNR}
}

// BatchResult reports a committed batch, rows that were rejected are listed in RowErrors
type BatchResult struct {
	Inserted  int
	RowErrors *multierror.Error
}

// Conn is a connection opened for a single persistence attempt
type Conn interface {
	Ping(ctx context.Context) error
	// InsertBatch writes all entries in one transaction, a rejected row does not abort the others.
	// An error means nothing was committed.
	InsertBatch(ctx context.Context, entries []LogEntry) (BatchResult, error)
	Close(ctx context.Context) error
}

type Backend interface {
	Name() string
	// Connect opens a new connection, bounded by the configured connect timeout
	Connect(ctx context.Context) (Conn, error)
	// Migrate applies the embedded schema migrations
	Migrate(ctx context.Context) error
}

// NewBackend returns the backend selected by conf.Driver
func NewBackend(conf config.StorageConfig) (Backend, error) {
	switch conf.Driver {
	case config.DriverPostgres:
		dsn, err := DatabaseURL(conf)
		if err != nil {
			return nil, err
		}
		return NewPostgres(dsn, conf.ConnectTimeout.Value()), nil
	case config.DriverSQLite:
		return NewSQLite(conf.Path, conf.ConnectTimeout.Value()), nil
	default:
		return nil, fmt.Errorf("%q: %w", conf.Driver, config.ErrInvalidDriver)
	}
}

// Probe verifies that the store accepts connections
func Probe(ctx context.Context, backend Backend) error {
	conn, err := backend.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", backend.Name(), err)
	}
	defer func() {
		_ = conn.Close(context.Background())
	}()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", backend.Name(), err)
	}

	return nil
}
