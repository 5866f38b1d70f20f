package capture

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/julianstephens/go-utils/helpers"
)

const writerBufferSize = 64 << 10 // 64KiB

// Writer appends frames to a capture file.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	offset int64
	frames int
	closed bool
}

// Create opens path for appending, creating it and its directory if needed.
// Frames already in the file are kept.
func Create(path string) (*Writer, error) {
	if err := helpers.Ensure(filepath.Dir(path), true); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &Writer{
		file:   file,
		writer: bufio.NewWriterSize(file, writerBufferSize),
		offset: info.Size(),
	}, nil
}

// Append frames payload and buffers it. It returns the frame's offset.
func (w *Writer) Append(payload []byte) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	data, err := EncodeFrame(payload)
	if err != nil {
		return 0, err
	}
	if _, err := w.writer.Write(data); err != nil {
		return 0, err
	}

	offset := w.offset
	w.offset += int64(len(data))
	w.frames++
	return offset, nil
}

// Flush writes buffered frames to the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	return w.writer.Flush()
}

// FSync flushes then fsyncs the file.
func (w *Writer) FSync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Size returns the capture size including buffered frames.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// Frames returns how many frames this Writer appended.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Close flushes, syncs and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Source yields CopyData payloads.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Tee passes payloads from a Source through unchanged while appending each
// one to a Writer.
type Tee struct {
	src Source
	w   *Writer
}

// NewTee records everything src returns into w.
func NewTee(src Source, w *Writer) *Tee {
	return &Tee{src: src, w: w}
}

func (t *Tee) Next(ctx context.Context) ([]byte, error) {
	payload, err := t.src.Next(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := t.w.Append(payload); err != nil {
		return nil, err
	}
	return payload, nil
}
