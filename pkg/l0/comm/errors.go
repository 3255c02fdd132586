package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame indicates the declared frame length disagrees with
	// the bytes actually present.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrPayloadSizeMismatch indicates a fixed-size field arrived with the
	// wrong width.
	ErrPayloadSizeMismatch = errors.New("payload size mismatch")
)

// MalformedFrameError describes a dropped frame.
type MalformedFrameError struct {
	Declared int
	Actual   int
}

// Error implements error.
func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame: declared length %d, actual %d", e.Declared, e.Actual)
}

// Unwrap returns ErrMalformedFrame.
func (e *MalformedFrameError) Unwrap() error { return ErrMalformedFrame }

// PayloadSizeError describes a field of the wrong width.
type PayloadSizeError struct {
	Field    string
	Expected int
	Actual   int
}

// Error implements error.
func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("%s: expected %d bytes, got %d", e.Field, e.Expected, e.Actual)
}

// Unwrap returns ErrPayloadSizeMismatch.
func (e *PayloadSizeError) Unwrap() error { return ErrPayloadSizeMismatch }
