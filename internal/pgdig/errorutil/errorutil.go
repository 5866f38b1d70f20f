package errorutil

import (
	"fmt"
	"strings"
)

// Coordinates holds positional information (byte offset, field name, log position)
// used in error formatting across the decoder and the replication client.
type Coordinates struct {
	// Offset is the byte offset within the CopyData payload where the error occurred.
	Offset *int

	// Field is the wire field being read, e.g. "block_id" or "xl_crc".
	Field string

	// LSN is the log position of the message, in "H/L" form.
	LSN string
}

// FormatCoordinates returns a formatted string representation of the error coordinates.
// It includes only set values in the format: "at=X field=Y lsn=Z".
// Returns an empty string if nothing is set.
func (c *Coordinates) FormatCoordinates() string {
	if c == nil {
		return ""
	}

	var parts []string

	if c.Offset != nil {
		parts = append(parts, fmt.Sprintf("at=%d", *c.Offset))
	}
	if c.Field != "" {
		parts = append(parts, "field="+c.Field)
	}
	if c.LSN != "" {
		parts = append(parts, "lsn="+c.LSN)
	}

	return strings.Join(parts, " ")
}

// String implements the Stringer interface for Coordinates.
func (c *Coordinates) String() string {
	return c.FormatCoordinates()
}

// At returns Coordinates for a byte offset and field.
func At(offset int, field string) *Coordinates {
	return &Coordinates{Offset: &offset, Field: field}
}
