// Package capture records CopyData payloads received from a primary into a
// file of checksummed frames, and reads them back as a message source.
//
// Frame layout, all integers little-endian:
//
//	[len u32][payload: len bytes, first byte is the message tag][crc32c u32]
//
// The checksum covers the payload.
package capture

import (
	"encoding/binary"
	"io"

	"github.com/jackc/pglogrepl"
	"github.com/julianstephens/go-utils/checksum"
)

const (
	FrameHeaderSize = 4
	FrameCRCSize    = 4
	MaxFrameSize    = 16 * 1024 * 1024 // 16 MB
)

// Frame is one decoded capture frame.
type Frame struct {
	// Offset is where the frame starts in the capture.
	Offset int64
	// Size is the full encoded size, header and checksum included.
	Size    int64
	Payload []byte
	CRC     uint32
}

// Tag returns the replication message tag of the payload.
func (f Frame) Tag() byte {
	return f.Payload[0]
}

// EncodedFrameSize returns the on-disk size of a frame holding n payload bytes.
func EncodedFrameSize(n int) int64 {
	return int64(FrameHeaderSize + n + FrameCRCSize)
}

// ValidateLength checks a declared payload length.
func ValidateLength(length uint32) error {
	if length < 1 {
		return &FrameError{Kind: KindInvalidLength, DeclaredLen: length, Err: ErrInvalidLength}
	}
	if length > MaxFrameSize {
		return &FrameError{
			Kind:        KindTooLarge,
			DeclaredLen: length,
			Want:        MaxFrameSize,
			Have:        int(length),
			Err:         ErrTooLarge,
		}
	}
	return nil
}

// ValidateTag accepts the two messages a primary sends inside CopyData.
func ValidateTag(tag byte) error {
	switch tag {
	case pglogrepl.XLogDataByteID, pglogrepl.PrimaryKeepaliveMessageByteID:
		return nil
	}
	return &FrameError{Kind: KindInvalidTag, Tag: tag, Err: ErrInvalidTag}
}

// EncodeFrame frames payload for writing.
func EncodeFrame(payload []byte) ([]byte, error) {
	payloadLen := uint32(len(payload)) //nolint:gosec
	if err := ValidateLength(payloadLen); err != nil {
		return nil, err
	}
	if err := ValidateTag(payload[0]); err != nil {
		return nil, err
	}

	data := make([]byte, EncodedFrameSize(len(payload)))
	binary.LittleEndian.PutUint32(data[:FrameHeaderSize], payloadLen)
	copy(data[FrameHeaderSize:], payload)

	crcIndex := FrameHeaderSize + len(payload)
	binary.LittleEndian.PutUint32(data[crcIndex:], checksum.CRC32C(payload))

	return data, nil
}

// DecodeFrame decodes exactly one frame from data.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < FrameHeaderSize+FrameCRCSize {
		return Frame{}, &FrameError{
			Kind: KindTruncated,
			Want: FrameHeaderSize + FrameCRCSize,
			Have: len(data),
			Err:  io.ErrUnexpectedEOF,
		}
	}

	payloadLen := binary.LittleEndian.Uint32(data[:FrameHeaderSize])
	if err := ValidateLength(payloadLen); err != nil {
		return Frame{}, err
	}

	wantTotal := int(EncodedFrameSize(int(payloadLen)))
	if len(data) < wantTotal {
		return Frame{}, &FrameError{
			Kind:        KindTruncated,
			DeclaredLen: payloadLen,
			Want:        wantTotal,
			Have:        len(data),
			Err:         io.ErrUnexpectedEOF,
		}
	}
	if len(data) != wantTotal {
		return Frame{}, &FrameError{
			Kind:        KindCorrupt,
			DeclaredLen: payloadLen,
			Want:        wantTotal,
			Have:        len(data),
			Err:         ErrCorrupt,
		}
	}

	return checkFrame(0, payloadLen, data[FrameHeaderSize:])
}

// checkFrame validates the tag and checksum of body, which holds the payload
// followed by its checksum.
func checkFrame(offset int64, payloadLen uint32, body []byte) (Frame, error) {
	payload := body[:payloadLen]
	if err := ValidateTag(payload[0]); err != nil {
		fe, _ := AsFrameError(err)
		fe.Offset = offset
		fe.DeclaredLen = payloadLen
		return Frame{}, fe
	}

	frame := Frame{
		Offset:  offset,
		Size:    EncodedFrameSize(int(payloadLen)),
		Payload: payload,
		CRC:     binary.LittleEndian.Uint32(body[payloadLen : payloadLen+FrameCRCSize]),
	}
	if !checksum.VerifyCRC32C(frame.Payload, frame.CRC) {
		return Frame{}, &FrameError{
			Kind:        KindChecksumMismatch,
			Offset:      offset,
			DeclaredLen: payloadLen,
			Tag:         payload[0],
			Err:         ErrChecksumMismatch,
		}
	}

	return frame, nil
}
