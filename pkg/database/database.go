// Package database opens the ledger store and keeps its schema current.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-ledger-api/pkg/config"
)

// Open connects to the configured backend.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return NewPostgres(cfg)
	case config.DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
