package xlog

import "encoding/binary"

// Fixed-width reads. The bound of every read is len(data); callers that need a
// tighter bound pass data[:limit]. Byte order is always given by the caller.

func need(data []byte, at, want int, field string) error {
	have := len(data) - at
	if at >= 0 && at <= len(data) && have >= want {
		return nil
	}
	if at < 0 || have < 0 {
		have = 0
	}
	return newDecodeError(KindOutOfBounds, field, at, want, have)
}

// ReadU8 reads one byte at offset at.
func ReadU8(data []byte, at int, field string) (uint8, error) {
	if err := need(data, at, 1, field); err != nil {
		return 0, err
	}
	return data[at], nil
}

// ReadU16 reads a 2-byte unsigned integer at offset at.
func ReadU16(data []byte, at int, order binary.ByteOrder, field string) (uint16, error) {
	if err := need(data, at, 2, field); err != nil {
		return 0, err
	}
	return order.Uint16(data[at : at+2]), nil
}

// ReadU32 reads a 4-byte unsigned integer at offset at.
func ReadU32(data []byte, at int, order binary.ByteOrder, field string) (uint32, error) {
	if err := need(data, at, 4, field); err != nil {
		return 0, err
	}
	return order.Uint32(data[at : at+4]), nil
}

// ReadU64 reads an 8-byte unsigned integer at offset at.
func ReadU64(data []byte, at int, order binary.ByteOrder, field string) (uint64, error) {
	if err := need(data, at, 8, field); err != nil {
		return 0, err
	}
	return order.Uint64(data[at : at+8]), nil
}

// ReadBytes returns a copy of n bytes starting at offset at.
func ReadBytes(data []byte, at, n int, field string) ([]byte, error) {
	if n < 0 {
		return nil, newDecodeError(KindOutOfBounds, field, at, n, 0)
	}
	if err := need(data, at, n, field); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, data[at:at+n])
	return out, nil
}

// cursor walks a bounded buffer, advancing only on successful reads.
type cursor struct {
	data  []byte
	off   int
	order binary.ByteOrder
}

func newCursor(data []byte, at int, order binary.ByteOrder) *cursor {
	return &cursor{data: data, off: at, order: order}
}

func (c *cursor) u8(field string) (uint8, error) {
	v, err := ReadU8(c.data, c.off, field)
	if err != nil {
		return 0, err
	}
	c.off++
	return v, nil
}

func (c *cursor) u16(field string) (uint16, error) {
	v, err := ReadU16(c.data, c.off, c.order, field)
	if err != nil {
		return 0, err
	}
	c.off += 2
	return v, nil
}

func (c *cursor) u32(field string) (uint32, error) {
	v, err := ReadU32(c.data, c.off, c.order, field)
	if err != nil {
		return 0, err
	}
	c.off += 4
	return v, nil
}

func (c *cursor) u64(field string) (uint64, error) {
	v, err := ReadU64(c.data, c.off, c.order, field)
	if err != nil {
		return 0, err
	}
	c.off += 8
	return v, nil
}

func (c *cursor) skip(n int, field string) error {
	if err := need(c.data, c.off, n, field); err != nil {
		return err
	}
	c.off += n
	return nil
}
