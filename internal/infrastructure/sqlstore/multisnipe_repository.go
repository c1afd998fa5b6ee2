// Package sqlstore keeps multi-snipe records in MySQL or SQLite through
// database/sql. Both dialects share the same queries; only the DDL differs.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"auction-sniper/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var _ domain.MultiSnipeRepository = (*MultiSnipeRepository)(nil)

const selectColumns = `SELECT id, color, default_bid, subtract_shipping, identifier FROM multisnipes`

type MultiSnipeRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewMultiSnipeRepository(db *sql.DB, dialect Dialect) *MultiSnipeRepository {
	return &MultiSnipeRepository{db: db, dialect: dialect}
}

func (r *MultiSnipeRepository) Save(ctx context.Context, rec *domain.Record) error {
	if rec.ID == 0 {
		query := `
            INSERT INTO multisnipes (color, default_bid, subtract_shipping, identifier)
            VALUES (?, ?, ?, ?)
        `
		res, err := r.db.ExecContext(ctx, query,
			rec.Color, rec.DefaultBid, rec.SubtractShipping, rec.Identifier)
		if err != nil {
			return fmt.Errorf("failed to insert multisnipe: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read multisnipe id: %w", err)
		}
		rec.ID = id
		return nil
	}

	// identifier is left alone: it is fixed once the row exists.
	query := `UPDATE multisnipes SET color = ?, default_bid = ?, subtract_shipping = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		rec.Color, rec.DefaultBid, rec.SubtractShipping, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update multisnipe %d: %w", rec.ID, err)
	}
	return nil
}

func (r *MultiSnipeRepository) Find(ctx context.Context, id int64) (*domain.Record, error) {
	return r.FindFirstBy(ctx, "id", strconv.FormatInt(id, 10))
}

// FindFirstBy returns the lowest-id row whose key column equals value.
func (r *MultiSnipeRepository) FindFirstBy(ctx context.Context, key, value string) (*domain.Record, error) {
	if !domain.IsRecordField(key) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, key)
	}

	var arg interface{} = value
	switch key {
	case "id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		arg = id
	case "subtract_shipping":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		arg = b
	}

	// key is one of domain.RecordFields, never caller text.
	query := selectColumns + ` WHERE ` + key + ` = ? ORDER BY id ASC LIMIT 1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *MultiSnipeRepository) List(ctx context.Context) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *MultiSnipeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM multisnipes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var rec domain.Record
	var identifier sql.NullString

	if err := s.Scan(&rec.ID, &rec.Color, &rec.DefaultBid, &rec.SubtractShipping, &identifier); err != nil {
		return nil, err
	}

	rec.Identifier = "0"
	if identifier.Valid && identifier.String != "" {
		rec.Identifier = identifier.String
	}
	return &rec, nil
}
