package capture

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated        = errors.New("capture: truncated frame")
	ErrInvalidLength    = errors.New("capture: invalid frame length (must be > 0)")
	ErrTooLarge         = errors.New("capture: frame too large")
	ErrInvalidTag       = errors.New("capture: invalid message tag")
	ErrChecksumMismatch = errors.New("capture: frame checksum mismatch")
	ErrCorrupt          = errors.New("capture: corrupt frame")
	ErrClosed           = errors.New("capture: writer closed")
)

type FrameErrorKind uint8

const (
	KindTruncated FrameErrorKind = iota
	KindInvalidLength
	KindTooLarge
	KindInvalidTag
	KindChecksumMismatch
	KindCorrupt
)

func (k FrameErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "truncated"
	case KindInvalidLength:
		return "invalid_length"
	case KindTooLarge:
		return "too_large"
	case KindInvalidTag:
		return "invalid_tag"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// FrameError describes a frame that could not be read back from a capture.
type FrameError struct {
	Kind FrameErrorKind
	// Offset is where the failing frame starts (at its length prefix). A
	// capture cut short by a crash can be truncated here to drop the torn tail.
	Offset      int64
	DeclaredLen uint32
	Tag         byte
	Want        int
	Have        int
	Err         error
}

func (e *FrameError) Error() string {
	cause := "<nil>"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return fmt.Sprintf("capture frame error kind=%s offset=%d len=%d tag=0x%02x want=%d have=%d: %s",
		e.Kind, e.Offset, e.DeclaredLen, e.Tag, e.Want, e.Have, cause)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func (e *FrameError) Is(target error) bool {
	switch target {
	case ErrTruncated:
		return e.Kind == KindTruncated
	case ErrInvalidLength:
		return e.Kind == KindInvalidLength
	case ErrTooLarge:
		return e.Kind == KindTooLarge
	case ErrInvalidTag:
		return e.Kind == KindInvalidTag
	case ErrChecksumMismatch:
		return e.Kind == KindChecksumMismatch
	case ErrCorrupt:
		return e.Kind == KindCorrupt
	}
	return false
}

func AsFrameError(err error) (*FrameError, bool) {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsTruncation reports whether err is a torn final frame.
func IsTruncation(err error) bool {
	return errors.Is(err, ErrTruncated)
}
