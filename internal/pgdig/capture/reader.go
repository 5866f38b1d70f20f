package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"
)

// Reader reads frames back from a capture. It satisfies monitor.Source.
type Reader struct {
	r      io.Reader
	closer io.Closer
	offset int64
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Open opens the capture file at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	return &Reader{r: bufio.NewReader(file), closer: file}, nil
}

// ReadFrame reads the next frame. It returns io.EOF only when the capture
// ends exactly on a frame boundary.
func (cr *Reader) ReadFrame() (Frame, error) {
	frameStart := cr.offset

	hdr := make([]byte, FrameHeaderSize)
	n, err := io.ReadFull(cr.r, hdr)
	if err != nil {
		cr.offset += int64(n)
		if err == io.EOF && n == 0 {
			return Frame{}, io.EOF
		}
		return Frame{}, &FrameError{
			Kind:   KindTruncated,
			Offset: frameStart,
			Want:   FrameHeaderSize,
			Have:   n,
			Err:    io.ErrUnexpectedEOF,
		}
	}

	payloadLen := binary.LittleEndian.Uint32(hdr)
	if err := ValidateLength(payloadLen); err != nil {
		fe, _ := AsFrameError(err)
		fe.Offset = frameStart
		return Frame{}, fe
	}

	body := make([]byte, int(payloadLen)+FrameCRCSize)
	n, err = io.ReadFull(cr.r, body)
	if err != nil {
		cr.offset += int64(FrameHeaderSize + n)
		return Frame{}, &FrameError{
			Kind:        KindTruncated,
			Offset:      frameStart,
			DeclaredLen: payloadLen,
			Want:        len(body),
			Have:        n,
			Err:         io.ErrUnexpectedEOF,
		}
	}
	cr.offset += int64(FrameHeaderSize + len(body))

	return checkFrame(frameStart, payloadLen, body)
}

// Next returns the payload of the next frame.
func (cr *Reader) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := cr.ReadFrame()
	if err != nil {
		return nil, err
	}
	return frame.Payload, nil
}

// Offset returns how many bytes have been consumed.
func (cr *Reader) Offset() int64 {
	return cr.offset
}

// Close closes the underlying file when the Reader was opened by path.
func (cr *Reader) Close() error {
	if cr.closer == nil {
		return nil
	}
	return cr.closer.Close()
}
