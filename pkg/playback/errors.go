package playback

import "errors"

// ErrInvalidFilter is returned for an unknown dispatch filter name.
var ErrInvalidFilter = errors.New("invalid event filter")

// ErrInvalidNoteFilter is returned when a note filter cannot be parsed.
var ErrInvalidNoteFilter = errors.New("invalid note filter")

// ErrInvalidEnvelope is returned when envelope parameters cannot be parsed.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// ErrInvalidCurve is returned when curve keyframes cannot be parsed.
var ErrInvalidCurve = errors.New("invalid curve")

// ErrInvalidMode is returned for an unknown control mode name.
var ErrInvalidMode = errors.New("invalid control mode")
