package xlog_test

import (
	"encoding/binary"
	"errors"
	"testing"

	tst "github.com/julianstephens/go-utils/tests"

	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// TestReadFixedWidth tests every fixed-width read in both byte orders
func TestReadFixedWidth(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}

	u8, err := xlog.ReadU8(data, 8, "u8")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, u8, uint8(0x09))

	le16, err := xlog.ReadU16(data, 0, binary.LittleEndian, "u16")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, le16, uint16(0x0201))

	be16, err := xlog.ReadU16(data, 0, binary.BigEndian, "u16")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, be16, uint16(0x0102))

	le32, err := xlog.ReadU32(data, 1, binary.LittleEndian, "u32")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, le32, uint32(0x05040302))

	be32, err := xlog.ReadU32(data, 1, binary.BigEndian, "u32")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, be32, uint32(0x02030405))

	le64, err := xlog.ReadU64(data, 1, binary.LittleEndian, "u64")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, le64, uint64(0x0908070605040302))

	be64, err := xlog.ReadU64(data, 0, binary.BigEndian, "u64")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, be64, uint64(0x0102030405060708))
}

// TestReadOutOfBounds tests that every read past the end fails without panicking
func TestReadOutOfBounds(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}

	testCases := []struct {
		name string
		read func() error
		at   int
		want int
		have int
	}{
		{"u8 at end", func() error { _, err := xlog.ReadU8(data, 3, "f"); return err }, 3, 1, 0},
		{"u16 straddles end", func() error { _, err := xlog.ReadU16(data, 2, binary.LittleEndian, "f"); return err }, 2, 2, 1},
		{"u32 too long", func() error { _, err := xlog.ReadU32(data, 0, binary.LittleEndian, "f"); return err }, 0, 4, 3},
		{"u64 too long", func() error { _, err := xlog.ReadU64(data, 0, binary.BigEndian, "f"); return err }, 0, 8, 3},
		{"negative offset", func() error { _, err := xlog.ReadU8(data, -1, "f"); return err }, -1, 1, 0},
		{"offset past end", func() error { _, err := xlog.ReadU16(data, 10, binary.BigEndian, "f"); return err }, 10, 2, 0},
		{"bytes too long", func() error { _, err := xlog.ReadBytes(data, 1, 3, "f"); return err }, 1, 3, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read()
			tst.AssertTrue(t, errors.Is(err, xlog.ErrOutOfBounds), "expected ErrOutOfBounds")

			de, ok := xlog.AsDecodeError(err)
			tst.AssertTrue(t, ok, "expected *DecodeError")
			tst.AssertEqual(t, de.Kind, xlog.KindOutOfBounds, "expected out of bounds kind")
			tst.AssertEqual(t, de.At, tc.at, "unexpected offset")
			tst.AssertEqual(t, de.Want, tc.want, "unexpected want")
			tst.AssertEqual(t, de.Have, tc.have, "unexpected have")
			tst.AssertEqual(t, de.Field, "f", "unexpected field")
		})
	}
}

// TestReadRespectsResliceBound tests that a re-sliced buffer tightens the bound
func TestReadRespectsResliceBound(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}

	_, err := xlog.ReadU32(data[:3], 0, binary.LittleEndian, "bounded")
	tst.AssertTrue(t, errors.Is(err, xlog.ErrOutOfBounds), "expected ErrOutOfBounds within the tighter bound")
}

// TestReadBytesCopies tests that ReadBytes never aliases its input
func TestReadBytesCopies(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC}

	out, err := xlog.ReadBytes(data, 1, 2, "raw")
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, out, []byte{0xBB, 0xCC})

	data[1] = 0x00
	tst.AssertEqual(t, out[0], byte(0xBB), "expected copy to be unaffected by input mutation")

	empty, err := xlog.ReadBytes(data, 3, 0, "raw")
	tst.RequireNoError(t, err)
	tst.AssertEqual(t, len(empty), 0, "expected empty read at end")

	_, err = xlog.ReadBytes(data, 0, -1, "raw")
	tst.AssertTrue(t, errors.Is(err, xlog.ErrOutOfBounds), "expected negative length to fail")
}
