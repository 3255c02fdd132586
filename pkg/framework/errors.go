package framework

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AggregatedError collects the errors of steps that all have to run, e.g.
// stopping every motor and closing the transport on shutdown.
type AggregatedError struct {
	Errors []error
}

// Error implements error. A single error keeps its own message.
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	if len(e.Errors) > 1 {
		fmt.Fprintf(&sb, "%d errors:", len(e.Errors))
	}
	for _, err := range e.Errors {
		sb.WriteString("\n\t")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap lets errors.Is and errors.As see every collected error.
func (e *AggregatedError) Unwrap() []error {
	return e.Errors
}

// Add collects non-nil errors.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns nil when nothing was collected.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// WithCleanup merges the error a Runnable stopped with and the errors of its
// cleanup. The cause is returned untouched when the cleanup succeeded, and
// dropped when it is only a cancellation.
func WithCleanup(cause error, cleanup ...error) error {
	var errs AggregatedError
	if errs.Add(cleanup...).Aggregate() == nil {
		return cause
	}
	if cause == nil || errors.Is(cause, context.Canceled) {
		return errs.Aggregate()
	}
	return (&AggregatedError{Errors: []error{cause}}).Add(errs.Errors...)
}
