package sqlstore

import (
	"context"
	"fmt"
)

type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

var schemas = map[Dialect][]string{
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS multisnipes (
            id BIGINT AUTO_INCREMENT PRIMARY KEY,
            color CHAR(6) NOT NULL,
            default_bid VARCHAR(64) NOT NULL,
            subtract_shipping BOOLEAN NOT NULL DEFAULT FALSE,
            identifier VARCHAR(32) NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            INDEX idx_multisnipes_identifier (identifier)
        )`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS multisnipes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            color TEXT NOT NULL,
            default_bid TEXT NOT NULL,
            subtract_shipping BOOLEAN NOT NULL DEFAULT 0,
            identifier TEXT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_multisnipes_identifier ON multisnipes(identifier)`,
	},
}

// Migrate creates the multisnipes table if it does not exist yet.
func (r *MultiSnipeRepository) Migrate(ctx context.Context) error {
	stmts, ok := schemas[r.dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", r.dialect)
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate multisnipes: %w", err)
		}
	}
	return nil
}
