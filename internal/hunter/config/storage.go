package config

import (
	"fmt"
	"time"
)

type StorageDriver string

const (
	DriverPostgres StorageDriver = "postgres"
	DriverSQLite   StorageDriver = "sqlite"

	DefaultStorageConnectTimeout = 5 * time.Second
	DefaultStorageInsertTimeout  = 30 * time.Second
)

// SupportedOptions lists the options for the config parser
func (d StorageDriver) SupportedOptions() []StorageDriver {
	return []StorageDriver{DriverPostgres, DriverSQLite}
}

type StorageConfig struct {
	Driver         StorageDriver `toml:"driver" comment:"postgres or sqlite"`
	URL            string        `toml:"url,omitempty" comment:"full postgres url, takes precedence over the single fields"`
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	User           string        `toml:"user"`
	Password       string        `toml:"password"`
	DBName         string        `toml:"dbname"`
	SSLMode        string        `toml:"sslmode"`
	Path           string        `toml:"path" comment:"database file for the sqlite driver"`
	ConnectTimeout Duration      `toml:"connect_timeout"`
	InsertTimeout  Duration      `toml:"insert_timeout" comment:"bounds writing one batch"`
	Migrate        bool          `toml:"migrate" comment:"apply the schema migrations on startup"`
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:         DriverPostgres,
		Host:           "localhost",
		Port:           5432,
		User:           "postgres",
		Password:       "password",
		DBName:         "foxhunter",
		SSLMode:        "disable",
		Path:           "foxhunter.db",
		ConnectTimeout: Duration(DefaultStorageConnectTimeout),
		InsertTimeout:  Duration(DefaultStorageInsertTimeout),
		Migrate:        true,
	}
}

func (c StorageConfig) Verify() error {
	switch c.Driver {
	case DriverPostgres:
		if c.URL == "" && (c.Host == "" || c.DBName == "") {
			return fmt.Errorf("postgres needs either url or host and dbname")
		}
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite needs a path")
		}
	default:
		return fmt.Errorf("%q: %w", c.Driver, ErrInvalidDriver)
	}

	if c.ConnectTimeout <= 0 || c.InsertTimeout < 0 {
		return fmt.Errorf("storage timeouts: %w", ErrInvalidDuration)
	}

	return nil
}
