package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownField  = errors.New("unknown field")
	ErrUnsafeSnipe   = errors.New("entry is not safe to add to multisnipe")
	ErrGroupNotFound = errors.New("multisnipe group not found")
	ErrEntryNotFound = errors.New("entry not found in multisnipe")
	ErrEntryInGroup  = errors.New("entry already belongs to another multisnipe")
)

// Record is the stored form of a MultiSnipe.
type Record struct {
	ID               int64  `json:"id"`
	Color            string `json:"color"`
	DefaultBid       string `json:"default_bid"`
	SubtractShipping bool   `json:"subtract_shipping"`
	Identifier       string `json:"identifier"`
}

// RecordFields are the columns FindFirstBy accepts as a key.
var RecordFields = []string{"id", "color", "default_bid", "subtract_shipping", "identifier"}

func IsRecordField(key string) bool {
	for _, f := range RecordFields {
		if f == key {
			return true
		}
	}
	return false
}

type MultiSnipeRepository interface {
	// Save inserts rec when rec.ID is zero and sets rec.ID, otherwise it
	// updates the row. The identifier of an existing row is never changed.
	Save(ctx context.Context, rec *Record) error
	Find(ctx context.Context, id int64) (*Record, error)
	FindFirstBy(ctx context.Context, key, value string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, id int64) error
}

// RecordCache returns (nil, nil) on a miss.
type RecordCache interface {
	Get(ctx context.Context, identifier string) (*Record, error)
	Set(ctx context.Context, rec *Record) error
	Invalidate(ctx context.Context, identifier string) error
}
