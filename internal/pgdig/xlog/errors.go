package xlog

import (
	"errors"
	"fmt"

	"github.com/julianstephens/pgdig/internal/pgdig/errorutil"
)

var (
	ErrOutOfBounds             = errors.New("xlog: read out of bounds")
	ErrTruncatedMessage        = errors.New("xlog: truncated message header")
	ErrTruncatedRecord         = errors.New("xlog: truncated record header")
	ErrInvalidRecordLength     = errors.New("xlog: invalid record length")
	ErrUnknownResourceManager  = errors.New("xlog: unknown resource manager")
	ErrInvalidBlockID          = errors.New("xlog: invalid block id")
	ErrMissingPreviousRelation = errors.New("xlog: same-relation block without a previous relation")
	ErrInconsistentBlock       = errors.New("xlog: inconsistent block data state")
	ErrChecksumMismatch        = errors.New("xlog: record checksum mismatch")
	ErrMalformedLogPosition    = errors.New("xlog: malformed log position")
)

type DecodeErrorKind uint8

const (
	KindOutOfBounds DecodeErrorKind = iota
	KindTruncatedMessage
	KindTruncatedRecord
	KindInvalidRecordLength
	KindUnknownResourceManager
	KindInvalidBlockID
	KindMissingPreviousRelation
	KindInconsistentBlock
	KindChecksumMismatch
	KindMalformedLogPosition
)

func (k DecodeErrorKind) String() string {
	switch k {
	case KindOutOfBounds:
		return "out_of_bounds"
	case KindTruncatedMessage:
		return "truncated_message"
	case KindTruncatedRecord:
		return "truncated_record"
	case KindInvalidRecordLength:
		return "invalid_record_length"
	case KindUnknownResourceManager:
		return "unknown_resource_manager"
	case KindInvalidBlockID:
		return "invalid_block_id"
	case KindMissingPreviousRelation:
		return "missing_previous_relation"
	case KindInconsistentBlock:
		return "inconsistent_block"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindMalformedLogPosition:
		return "malformed_log_position"
	default:
		return "unknown"
	}
}

func (k DecodeErrorKind) sentinel() error {
	switch k {
	case KindOutOfBounds:
		return ErrOutOfBounds
	case KindTruncatedMessage:
		return ErrTruncatedMessage
	case KindTruncatedRecord:
		return ErrTruncatedRecord
	case KindInvalidRecordLength:
		return ErrInvalidRecordLength
	case KindUnknownResourceManager:
		return ErrUnknownResourceManager
	case KindInvalidBlockID:
		return ErrInvalidBlockID
	case KindMissingPreviousRelation:
		return ErrMissingPreviousRelation
	case KindInconsistentBlock:
		return ErrInconsistentBlock
	case KindChecksumMismatch:
		return ErrChecksumMismatch
	case KindMalformedLogPosition:
		return ErrMalformedLogPosition
	default:
		return nil
	}
}

// DecodeError describes why a CopyData payload could not be decoded.
type DecodeError struct {
	Kind DecodeErrorKind
	// Field is the wire field being read, e.g. "xl_tot_len" or "block_id".
	Field string
	// At is the byte offset into the caller's buffer where the failing read started.
	At   int
	Want int
	Have int
	// Value carries the offending raw value (block id, rmgr id, crc) when there is one.
	Value uint64
	Err   error
}

func (e *DecodeError) Error() string {
	cause := "<nil>"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	coords := errorutil.At(e.At, e.Field)
	return fmt.Sprintf("xlog decode error kind=%s %s want=%d have=%d value=%d: %s",
		e.Kind.String(), coords, e.Want, e.Have, e.Value, cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newDecodeError(kind DecodeErrorKind, field string, at, want, have int) *DecodeError {
	return &DecodeError{
		Kind:  kind,
		Field: field,
		At:    at,
		Want:  want,
		Have:  have,
		Err:   kind.sentinel(),
	}
}

func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsTruncation reports whether err means the payload ended early.
func IsTruncation(err error) bool {
	return errors.Is(err, ErrOutOfBounds) || errors.Is(err, ErrTruncatedMessage) ||
		errors.Is(err, ErrTruncatedRecord)
}

// IsCorruption reports whether err means the payload is framed incorrectly.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrInvalidRecordLength) || errors.Is(err, ErrInvalidBlockID) ||
		errors.Is(err, ErrMissingPreviousRelation) || errors.Is(err, ErrInconsistentBlock) ||
		errors.Is(err, ErrChecksumMismatch)
}
