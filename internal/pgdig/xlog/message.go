package xlog

import (
	"fmt"
	"strings"
	"time"
)

// DecodedMessage is the decoded form of one XLogData payload.
type DecodedMessage struct {
	Header MessageHeader    `json:"header"`
	Record RecordHeader     `json:"record"`
	Blocks []BlockReference `json:"blocks"`
	// Skip is set when Blocks is empty because the record was not scanned.
	Skip SkipReason `json:"skip"`
	// ChecksumVerified is true when xl_crc was checked and matched.
	ChecksumVerified bool `json:"checksum_verified"`
}

// BlockNumbers returns the block number of each reference in order.
func (m DecodedMessage) BlockNumbers() []uint32 {
	nums := make([]uint32, 0, len(m.Blocks))
	for _, b := range m.Blocks {
		nums = append(nums, b.BlockNumber)
	}
	return nums
}

func (m DecodedMessage) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "start_lsn: %s, end_lsn: %s, message_time: %s",
		m.Header.Start(), m.Header.End(), m.Header.SentAt().Format(time.RFC3339Nano))
	fmt.Fprintf(&sb, ", xid: %d, rmgr: %s (%d), type: %s, len: %d, prev: %s",
		m.Record.TransactionID,
		m.Record.ResourceManagerID,
		uint8(m.Record.ResourceManagerID),
		RecordTypeName(m.Record.ResourceManagerID, m.Record.Info),
		m.Record.TotalLength,
		m.Record.Prev(),
	)
	if m.Skip != SkipNone {
		fmt.Fprintf(&sb, ", blocks: skipped (%s)", m.Skip)
		return sb.String()
	}
	fmt.Fprintf(&sb, ", blocks: %v", m.BlockNumbers())
	for _, b := range m.Blocks {
		sb.WriteString("\n\t")
		sb.WriteString(b.String())
	}
	return sb.String()
}

// Decoder decodes XLogData payloads. The zero value uses the aligned record
// layout and does not verify checksums.
type Decoder struct {
	Layout         RecordLayout
	VerifyChecksum bool
}

// Decode decodes the message whose header starts at offset in data.
// offset is usually 1, just past the 'w' CopyData tag. The result never
// aliases data.
func (d Decoder) Decode(data []byte, offset int) (DecodedMessage, error) {
	header, err := DecodeMessageHeader(data, offset)
	if err != nil {
		return DecodedMessage{}, err
	}

	recStart := offset + MessageHeaderSize
	record, err := DecodeRecordHeader(data, recStart, d.Layout)
	if err != nil {
		return DecodedMessage{}, err
	}

	msg := DecodedMessage{Header: header, Record: record, Blocks: []BlockReference{}}

	if record.HasReservedTransactionID() {
		msg.Skip = SkipReservedTransaction
		return msg, nil
	}
	if _, err := LookupResourceManager(record.ResourceManagerID); err != nil {
		if de, ok := AsDecodeError(err); ok {
			de.At = recStart
		}
		return DecodedMessage{}, err
	}

	recEnd := recStart + int(record.TotalLength)
	whole := recEnd <= len(data)
	bound := data
	if whole {
		bound = data[:recEnd]
	}

	blocks, skip, err := scanBlockReferences(bound, recStart+d.Layout.Size(), record)
	if err != nil {
		return DecodedMessage{}, err
	}
	msg.Blocks = blocks
	msg.Skip = skip

	if d.VerifyChecksum && whole {
		got := ComputeRecordChecksum(data[recStart:recEnd], d.Layout)
		if got != record.CRC {
			de := newDecodeError(KindChecksumMismatch, "xl_crc", recStart, int(record.TotalLength), int(record.TotalLength))
			de.Value = uint64(got)
			de.Err = fmt.Errorf("%w: stored=%08x computed=%08x", ErrChecksumMismatch, record.CRC, got)
			return DecodedMessage{}, de
		}
		msg.ChecksumVerified = true
	}

	return msg, nil
}

var defaultDecoder Decoder

// Decode decodes data at offset with the default Decoder.
func Decode(data []byte, offset int) (DecodedMessage, error) {
	return defaultDecoder.Decode(data, offset)
}
