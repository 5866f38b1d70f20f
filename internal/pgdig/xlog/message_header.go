package xlog

import (
	"encoding/binary"
	"time"
)

// MessageHeaderSize is the XLogData header: dataStart, walEnd, sendTime.
const MessageHeaderSize = 24

// CopyData tags that precede a replication payload.
const (
	XLogDataTag         byte = 'w'
	PrimaryKeepaliveTag byte = 'k'
)

// pgEpochUnixMicros is 2000-01-01T00:00:00Z in microseconds since the Unix epoch.
const pgEpochUnixMicros int64 = 946_684_800 * 1_000_000

// MessageHeader is the leading header of one XLogData message.
type MessageHeader struct {
	// StartPosition is the WAL location of the first byte of the payload.
	StartPosition uint64 `json:"start_position"`
	// EndPosition is the current end of WAL on the server.
	EndPosition uint64 `json:"end_position"`
	// SendTime is microseconds since 2000-01-01 UTC.
	SendTime int64 `json:"send_time"`
}

func (h MessageHeader) Start() LogPosition {
	return LogPositionFromUint64(h.StartPosition)
}

func (h MessageHeader) End() LogPosition {
	return LogPositionFromUint64(h.EndPosition)
}

// SentAt converts SendTime to wall-clock time in UTC.
func (h MessageHeader) SentAt() time.Time {
	return PostgresTime(h.SendTime)
}

// PostgresTime converts microseconds since the server epoch to time.Time.
func PostgresTime(micros int64) time.Time {
	return time.UnixMicro(pgEpochUnixMicros + micros).UTC()
}

// DecodeMessageHeader decodes the big-endian XLogData header at offset at.
// Format (BE): [dataStart (8)][walEnd (8)][sendTime (8)]
func DecodeMessageHeader(data []byte, at int) (MessageHeader, error) {
	if err := need(data, at, MessageHeaderSize, "xlog_data_header"); err != nil {
		de, _ := AsDecodeError(err)
		return MessageHeader{}, newDecodeError(KindTruncatedMessage, "xlog_data_header", at, MessageHeaderSize, de.Have)
	}

	c := newCursor(data[:at+MessageHeaderSize], at, binary.BigEndian)
	start, err := c.u64("data_start")
	if err != nil {
		return MessageHeader{}, err
	}
	end, err := c.u64("wal_end")
	if err != nil {
		return MessageHeader{}, err
	}
	sent, err := c.u64("send_time")
	if err != nil {
		return MessageHeader{}, err
	}

	return MessageHeader{
		StartPosition: start,
		EndPosition:   end,
		SendTime:      int64(sent), //nolint:gosec
	}, nil
}
