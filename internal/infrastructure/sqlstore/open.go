package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"auction-sniper/internal/config"
)

// Open connects to the configured database and pings it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	dialect := Dialect(cfg.Driver)
	if _, ok := schemas[dialect]; !ok {
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	if dialect == DialectSQLite {
		// One writer at a time; also keeps ":memory:" on a single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}
	return db, dialect, nil
}
