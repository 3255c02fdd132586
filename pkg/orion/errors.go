package orion

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedOperation indicates the operation is not supported by
	// the device, e.g. reading a write-only device.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrUnknownReplyTarget indicates no attached device matches the index
	// of a reply.
	ErrUnknownReplyTarget = errors.New("unknown reply target")
	// ErrStalledPoll indicates no fresh reading arrived within the poll timeout.
	ErrStalledPoll = errors.New("stalled poll")
	// ErrDetached indicates the device isn't attached to a port.
	ErrDetached = errors.New("device not attached")
	// ErrNoSender indicates the board has no transport to send with.
	ErrNoSender = errors.New("no sender")
)

// StalledPollError reports a poll that timed out.
type StalledPollError struct {
	Waited time.Duration
	Checks int
}

// Error implements error.
func (e *StalledPollError) Error() string {
	return fmt.Sprintf("stalled poll: no fresh reading after %v (%d checks)", e.Waited, e.Checks)
}

// Unwrap returns ErrStalledPoll.
func (e *StalledPollError) Unwrap() error { return ErrStalledPoll }

func unsupported(what string, d Device) error {
	return fmt.Errorf("%w: %s on %v", ErrUnsupportedOperation, what, d.Kind())
}
