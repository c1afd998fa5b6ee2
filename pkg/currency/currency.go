// Package currency holds the currency-tagged amounts used for snipe bids.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Amount is a decimal value tagged with an ISO-style currency code.
// The zero Amount is the null amount.
type Amount struct {
	Code  string
	Value decimal.Decimal
}

func New(code string, value decimal.Decimal) Amount {
	return Amount{Code: strings.ToUpper(code), Value: value}
}

// FromString builds an amount from a decimal string such as "10.00".
func FromString(code, value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	return New(code, d), nil
}

// Parse reads the "CODE value" form produced by String.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	code, value, ok := strings.Cut(s, " ")
	if !ok || code == "" {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromString(code, strings.TrimSpace(value))
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) IsNull() bool { return a.Code == "" }

func (a Amount) IsZero() bool { return a.Value.IsZero() }

func (a Amount) Equal(o Amount) bool {
	return a.Code == o.Code && a.Value.Equal(o.Value)
}

// Subtract returns a - o. Both amounts must carry the same currency.
func (a Amount) Subtract(o Amount) (Amount, error) {
	if a.Code != o.Code {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, a.Code, o.Code)
	}
	return Amount{Code: a.Code, Value: a.Value.Sub(o.Value)}, nil
}

func (a Amount) String() string {
	if a.IsNull() {
		return ""
	}
	return a.Code + " " + a.Value.StringFixed(2)
}
