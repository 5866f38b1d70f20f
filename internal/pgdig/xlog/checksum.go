package xlog

import "github.com/julianstephens/go-utils/checksum"

// ComputeRecordChecksum computes xl_crc for a complete record image the way the
// server does: CRC-32C over the record body, then over the header up to xl_crc.
func ComputeRecordChecksum(record []byte, layout RecordLayout) uint32 {
	body := record[layout.Size():]
	data := make([]byte, 0, len(body)+layout.CRCOffset())
	data = append(data, body...)
	data = append(data, record[:layout.CRCOffset()]...)
	return checksum.CRC32C(data)
}

// VerifyRecordChecksum reports whether the record's stored xl_crc matches.
// record must span exactly TotalLength bytes.
func VerifyRecordChecksum(record []byte, layout RecordLayout, crc uint32) bool {
	return ComputeRecordChecksum(record, layout) == crc
}
