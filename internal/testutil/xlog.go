package testutil

import (
	"encoding/binary"

	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// XLogDataBuilder assembles XLogData CopyData payloads for decoder tests.
// Block headers are encoded straight from the BlockReference fields, so
// tests can produce inconsistent or corrupt headers on purpose.
type XLogDataBuilder struct {
	header      xlog.MessageHeader
	record      xlog.RecordHeader
	layout      xlog.RecordLayout
	body        []byte
	tag         bool
	totalLength *uint32
	crc         *uint32
}

// NewXLogDataBuilder returns a builder for a Heap record with a normal xid.
func NewXLogDataBuilder() *XLogDataBuilder {
	return &XLogDataBuilder{
		header: xlog.MessageHeader{
			StartPosition: 0x1552C80,
			EndPosition:   0x155E080,
			SendTime:      786_523_432_000_000,
		},
		record: xlog.RecordHeader{
			TransactionID:     746,
			PrevPointer:       0x1552C48,
			ResourceManagerID: xlog.RmHeap,
		},
		tag: true,
	}
}

func (b *XLogDataBuilder) WithHeader(h xlog.MessageHeader) *XLogDataBuilder {
	b.header = h
	return b
}

func (b *XLogDataBuilder) WithLayout(layout xlog.RecordLayout) *XLogDataBuilder {
	b.layout = layout
	return b
}

func (b *XLogDataBuilder) WithTransactionID(xid uint32) *XLogDataBuilder {
	b.record.TransactionID = xid
	return b
}

func (b *XLogDataBuilder) WithResourceManager(id xlog.ResourceManagerID) *XLogDataBuilder {
	b.record.ResourceManagerID = id
	return b
}

func (b *XLogDataBuilder) WithInfo(info uint8) *XLogDataBuilder {
	b.record.Info = info
	return b
}

func (b *XLogDataBuilder) WithPrev(prev uint64) *XLogDataBuilder {
	b.record.PrevPointer = prev
	return b
}

// WithTotalLength overrides the computed xl_tot_len.
func (b *XLogDataBuilder) WithTotalLength(n uint32) *XLogDataBuilder {
	b.totalLength = &n
	return b
}

// WithCRC overrides the computed xl_crc.
func (b *XLogDataBuilder) WithCRC(crc uint32) *XLogDataBuilder {
	b.crc = &crc
	return b
}

// WithoutTag omits the leading 'w' byte.
func (b *XLogDataBuilder) WithoutTag() *XLogDataBuilder {
	b.tag = false
	return b
}

// AddBlock appends an encoded block reference header.
func (b *XLogDataBuilder) AddBlock(ref xlog.BlockReference) *XLogDataBuilder {
	b.body = append(b.body, EncodeBlockReference(ref)...)
	return b
}

// AddTopLevelXID appends an XLR_BLOCK_ID_TOPLEVEL_XID marker.
func (b *XLogDataBuilder) AddTopLevelXID(xid uint32) *XLogDataBuilder {
	b.body = append(b.body, xlog.XLRBlockIDTopLevelXID)
	b.body = binary.LittleEndian.AppendUint32(b.body, xid)
	return b
}

// AddMainData appends a short main-data marker followed by data.
func (b *XLogDataBuilder) AddMainData(data []byte) *XLogDataBuilder {
	b.body = append(b.body, xlog.XLRBlockIDDataShort, uint8(len(data))) //nolint:gosec
	b.body = append(b.body, data...)
	return b
}

// AddRaw appends bytes verbatim to the record body.
func (b *XLogDataBuilder) AddRaw(data ...byte) *XLogDataBuilder {
	b.body = append(b.body, data...)
	return b
}

// Record returns the encoded record with xl_tot_len and xl_crc filled in.
func (b *XLogDataBuilder) Record() []byte {
	h := b.record
	h.TotalLength = uint32(b.layout.Size() + len(b.body)) //nolint:gosec
	if b.totalLength != nil {
		h.TotalLength = *b.totalLength
	}

	rec := EncodeRecordHeader(h, b.layout)
	rec = append(rec, b.body...)

	crc := xlog.ComputeRecordChecksum(rec, b.layout)
	if b.crc != nil {
		crc = *b.crc
	}
	binary.LittleEndian.PutUint32(rec[b.layout.CRCOffset():], crc)
	return rec
}

// Build returns the full CopyData payload.
func (b *XLogDataBuilder) Build() []byte {
	var out []byte
	if b.tag {
		out = append(out, xlog.XLogDataTag)
	}
	out = append(out, EncodeMessageHeader(b.header)...)
	return append(out, b.Record()...)
}

// EncodeMessageHeader encodes the big-endian XLogData header.
func EncodeMessageHeader(h xlog.MessageHeader) []byte {
	buf := make([]byte, 0, xlog.MessageHeaderSize)
	buf = binary.BigEndian.AppendUint64(buf, h.StartPosition)
	buf = binary.BigEndian.AppendUint64(buf, h.EndPosition)
	return binary.BigEndian.AppendUint64(buf, uint64(h.SendTime)) //nolint:gosec
}

// EncodeRecordHeader encodes h in the given layout, pad bytes zeroed.
func EncodeRecordHeader(h xlog.RecordHeader, layout xlog.RecordLayout) []byte {
	buf := make([]byte, 0, layout.Size())
	buf = binary.LittleEndian.AppendUint32(buf, h.TotalLength)
	buf = binary.LittleEndian.AppendUint32(buf, h.TransactionID)
	buf = binary.LittleEndian.AppendUint64(buf, h.PrevPointer)
	buf = append(buf, h.Info, uint8(h.ResourceManagerID))
	for len(buf) < layout.CRCOffset() {
		buf = append(buf, 0)
	}
	return binary.LittleEndian.AppendUint32(buf, h.CRC)
}

// EncodeBlockReference encodes ref. The image header is written when Image
// is set, the compress hole length when the image also has a hole and is
// compressed, and the locator when Locator is set.
func EncodeBlockReference(ref xlog.BlockReference) []byte {
	buf := []byte{ref.ID, ref.ForkFlags}
	buf = binary.LittleEndian.AppendUint16(buf, ref.DataLength)
	if img := ref.Image; img != nil {
		buf = binary.LittleEndian.AppendUint16(buf, img.Length)
		buf = binary.LittleEndian.AppendUint16(buf, img.HoleOffset)
		buf = append(buf, img.Info)
		if img.HasHole() && img.Compressed() {
			buf = binary.LittleEndian.AppendUint16(buf, img.HoleLength)
		}
	}
	if loc := ref.Locator; loc != nil {
		buf = binary.LittleEndian.AppendUint32(buf, loc.Tablespace)
		buf = binary.LittleEndian.AppendUint32(buf, loc.Database)
		buf = binary.LittleEndian.AppendUint32(buf, loc.Relation)
	}
	return binary.LittleEndian.AppendUint32(buf, ref.BlockNumber)
}
