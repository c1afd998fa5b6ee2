// Package color converts group colours between an RGB triple and the
// six-digit hex form stored with every multi-snipe record.
package color

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedColor is matched by every *MalformedColorError.
var ErrMalformedColor = errors.New("malformed color")

type MalformedColorError struct {
	Value string
	Err   error
}

func (e *MalformedColorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed color %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("malformed color %q", e.Value)
}

func (e *MalformedColorError) Unwrap() error { return e.Err }

func (e *MalformedColorError) Is(target error) bool { return target == ErrMalformedColor }

type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string { return Encode(c) }

// Encode renders c as "rrggbb", lower-case, without a leading '#'.
func Encode(c RGB) string {
	return hexByte(c.R) + hexByte(c.G) + hexByte(c.B)
}

func hexByte(v uint8) string {
	s := strconv.FormatUint(uint64(v), 16)
	if len(s) == 1 {
		s = "0" + s
	}
	return s
}

// Decode parses the channels at offsets 0, 2 and 4. Anything past the
// sixth character is ignored.
func Decode(s string) (RGB, error) {
	if len(s) < 6 {
		return RGB{}, &MalformedColorError{Value: s, Err: errors.New("need 6 hex digits")}
	}

	var ch [3]uint8
	for i := range ch {
		pair := s[i*2 : i*2+2]
		v, err := strconv.ParseUint(pair, 16, 8)
		if err != nil {
			return RGB{}, &MalformedColorError{Value: s, Err: fmt.Errorf("bad channel %q", pair)}
		}
		ch[i] = uint8(v)
	}

	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}
