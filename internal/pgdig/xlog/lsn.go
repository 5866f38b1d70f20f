package xlog

import (
	"fmt"
	"strconv"
	"strings"
)

// LogPosition is a WAL location split into its high and low 32-bit halves,
// displayed the way the server does: "16/B374D848".
type LogPosition struct {
	High uint32
	Low  uint32
}

// InvalidLogPosition is the zero position, which the server never hands out.
var InvalidLogPosition = LogPosition{}

// LogPositionFromUint64 splits a 64-bit WAL location.
func LogPositionFromUint64(v uint64) LogPosition {
	return LogPosition{
		High: uint32(v >> 32),        //nolint:gosec
		Low:  uint32(v & 0xFFFFFFFF), //nolint:gosec
	}
}

// Uint64 joins the halves back into a 64-bit WAL location.
func (p LogPosition) Uint64() uint64 {
	return uint64(p.High)<<32 | uint64(p.Low)
}

// String formats p as uppercase hex halves without zero padding.
func (p LogPosition) String() string {
	return fmt.Sprintf("%X/%X", p.High, p.Low)
}

// Compare returns -1, 0 or +1 following WAL order.
func (p LogPosition) Compare(other LogPosition) int {
	a, b := p.Uint64(), other.Uint64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (p LogPosition) Less(other LogPosition) bool {
	return p.Compare(other) < 0
}

// ParseLogPosition parses the "H/L" hex form.
func ParseLogPosition(s string) (LogPosition, error) {
	high, low, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(low, "/") {
		return LogPosition{}, malformedLogPosition(s, "missing or repeated separator", nil)
	}

	h, err := parseHalf(high)
	if err != nil {
		return LogPosition{}, malformedLogPosition(s, "high half", err)
	}
	l, err := parseHalf(low)
	if err != nil {
		return LogPosition{}, malformedLogPosition(s, "low half", err)
	}

	return LogPosition{High: h, Low: l}, nil
}

func parseHalf(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func malformedLogPosition(s, field string, cause error) error {
	de := newDecodeError(KindMalformedLogPosition, field, 0, 0, len(s))
	if cause != nil {
		de.Err = fmt.Errorf("%w: %q: %w", ErrMalformedLogPosition, s, cause)
	} else {
		de.Err = fmt.Errorf("%w: %q", ErrMalformedLogPosition, s)
	}
	return de
}

// MarshalText implements encoding.TextMarshaler.
func (p LogPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *LogPosition) UnmarshalText(text []byte) error {
	v, err := ParseLogPosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
