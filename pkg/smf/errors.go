package smf

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is matched by every error returned from Load.
var ErrInvalidFormat = errors.New("invalid MIDI file format")

// ErrOutOfRange is returned when a read would run past the end of the buffer.
var ErrOutOfRange = errors.New("read past end of data")

// ErrVarintTooLong is returned when a variable-length quantity uses more than
// four bytes.
var ErrVarintTooLong = errors.New("variable-length quantity longer than 4 bytes")

// FormatError describes a structural violation found while decoding.
// The whole load is aborted; no tracks are returned alongside it.
type FormatError struct {
	Offset int    // byte offset where decoding stopped
	Reason string // human readable description
	Err    error  // underlying cause, may be nil
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v at offset %d: %s: %v", ErrInvalidFormat, e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v at offset %d: %s", ErrInvalidFormat, e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is reports ErrInvalidFormat so callers can test with errors.Is without
// caring about the concrete cause.
func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

func formatErr(offset int, reason string, err error) error {
	return &FormatError{Offset: offset, Reason: reason, Err: err}
}
