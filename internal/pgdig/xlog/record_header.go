package xlog

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	XLRInfoMask     uint8 = 0x0F
	XLRRmgrInfoMask uint8 = 0xF0
)

// Reserved transaction ids (transam.h).
const (
	InvalidTransactionID     uint32 = 0
	BootstrapTransactionID   uint32 = 1
	FrozenTransactionID      uint32 = 2
	FirstNormalTransactionID uint32 = 3
)

// RecordLayout selects the on-wire shape of the WAL record header.
type RecordLayout uint8

const (
	// RecordLayoutAligned is XLogRecord as laid out by every server since 9.5:
	// two zero pad bytes sit between xl_rmid and xl_crc.
	RecordLayoutAligned RecordLayout = iota
	// RecordLayoutPacked has no padding before xl_crc.
	RecordLayoutPacked
)

func (l RecordLayout) String() string {
	switch l {
	case RecordLayoutAligned:
		return "aligned"
	case RecordLayoutPacked:
		return "packed"
	default:
		return fmt.Sprintf("RecordLayout(%d)", uint8(l))
	}
}

// Size is SizeOfXLogRecord for the layout.
func (l RecordLayout) Size() int {
	if l == RecordLayoutPacked {
		return 22
	}
	return 24
}

// CRCOffset is offsetof(XLogRecord, xl_crc) for the layout.
func (l RecordLayout) CRCOffset() int {
	return l.Size() - 4
}

// ParseRecordLayout accepts "aligned" or "packed".
func ParseRecordLayout(s string) (RecordLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aligned":
		return RecordLayoutAligned, nil
	case "packed":
		return RecordLayoutPacked, nil
	default:
		return 0, fmt.Errorf("xlog: unknown record layout %q", s)
	}
}

func (l RecordLayout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *RecordLayout) UnmarshalText(text []byte) error {
	v, err := ParseRecordLayout(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// RecordFlags are the generic bits in the lower nibble of xl_info.
type RecordFlags uint8

const (
	RecordSpecialRelUpdate RecordFlags = 0x01
	RecordCheckConsistency RecordFlags = 0x02
)

func (f RecordFlags) Has(flag RecordFlags) bool {
	return f&flag == flag
}

func (f RecordFlags) String() string {
	var names []string
	if f.Has(RecordSpecialRelUpdate) {
		names = append(names, "SPECIAL_REL_UPDATE")
	}
	if f.Has(RecordCheckConsistency) {
		names = append(names, "CHECK_CONSISTENCY")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// RecordHeader is the fixed XLogRecord header.
type RecordHeader struct {
	TotalLength       uint32            `json:"total_length"`
	TransactionID     uint32            `json:"transaction_id"`
	PrevPointer       uint64            `json:"prev_pointer"`
	Info              uint8             `json:"info"`
	ResourceManagerID ResourceManagerID `json:"resource_manager_id"`
	CRC               uint32            `json:"crc"`
}

// SubType is the resource-manager specific record type.
func (h RecordHeader) SubType() uint8 {
	return (h.Info & XLRRmgrInfoMask) >> 4
}

func (h RecordHeader) Flags() RecordFlags {
	return RecordFlags(h.Info & XLRInfoMask)
}

func (h RecordHeader) Prev() LogPosition {
	return LogPositionFromUint64(h.PrevPointer)
}

// HasReservedTransactionID reports whether the record was written outside a
// normal transaction (invalid or bootstrap xid).
func (h RecordHeader) HasReservedTransactionID() bool {
	return h.TransactionID == InvalidTransactionID || h.TransactionID == BootstrapTransactionID
}

// DecodeRecordHeader decodes the record header at offset at using layout.
// Format (LE): [tot_len (4)][xid (4)][prev (8)][info (1)][rmid (1)][pad (0|2)][crc (4)]
func DecodeRecordHeader(data []byte, at int, layout RecordLayout) (RecordHeader, error) {
	size := layout.Size()
	if err := need(data, at, size, "xlog_record"); err != nil {
		de, _ := AsDecodeError(err)
		return RecordHeader{}, newDecodeError(KindTruncatedRecord, "xlog_record", at, size, de.Have)
	}

	// Bounds were checked for the whole header; the cursor cannot fail below.
	c := newCursor(data[:at+size], at, binary.LittleEndian)
	var (
		h   RecordHeader
		err error
	)
	if h.TotalLength, err = c.u32("xl_tot_len"); err != nil {
		return RecordHeader{}, err
	}
	if h.TransactionID, err = c.u32("xl_xid"); err != nil {
		return RecordHeader{}, err
	}
	if h.PrevPointer, err = c.u64("xl_prev"); err != nil {
		return RecordHeader{}, err
	}
	if h.Info, err = c.u8("xl_info"); err != nil {
		return RecordHeader{}, err
	}
	rmid, err := c.u8("xl_rmid")
	if err != nil {
		return RecordHeader{}, err
	}
	h.ResourceManagerID = ResourceManagerID(rmid)
	if err = c.skip(layout.CRCOffset()-(c.off-at), "xl_pad"); err != nil {
		return RecordHeader{}, err
	}
	if h.CRC, err = c.u32("xl_crc"); err != nil {
		return RecordHeader{}, err
	}

	if int(h.TotalLength) < size {
		de := newDecodeError(KindInvalidRecordLength, "xl_tot_len", at, size, int(h.TotalLength))
		de.Value = uint64(h.TotalLength)
		return RecordHeader{}, de
	}

	return h, nil
}
