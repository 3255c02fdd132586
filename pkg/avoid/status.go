package avoid

import (
	"context"
	"fmt"
	"time"

	"github.com/fermigas/Autonomy/pkg/orion"
)

// State is the state of the controller.
type State int

// States
const (
	StatePriming State = iota
	StateCruising
	StateRetreating
	StateTurning
)

var stateNames = map[State]string{
	StatePriming:    "PRIMING",
	StateCruising:   "CRUISING",
	StateRetreating: "RETREATING",
	StateTurning:    "TURNING",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Distances are the latest left, center and right range readings.
type Distances struct {
	Left   orion.Reading
	Center orion.Reading
	Right  orion.Reading
}

// Known indicates all three values are known.
func (d Distances) Known() bool {
	return d.Left.Value != orion.Unknown &&
		d.Center.Value != orion.Unknown &&
		d.Right.Value != orion.Unknown
}

// Blocked indicates any of the values is below threshold.
func (d Distances) Blocked(threshold float64) bool {
	return d.Left.Value < threshold ||
		d.Center.Value < threshold ||
		d.Right.Value < threshold
}

// Sample is a snapshot of the controller.
type Sample struct {
	Elapsed   time.Duration
	State     State
	Distances Distances
	Turn      Direction
}

// String formats the sample as a status line.
func (s Sample) String() string {
	d := s.Distances
	secs := s.Elapsed.Seconds()
	switch s.State {
	case StatePriming:
		return fmt.Sprintf("%.4f  priming    %.1f %.1f %.1f", secs, d.Left.Value, d.Center.Value, d.Right.Value)
	case StateRetreating:
		return fmt.Sprintf("%.4f  retreating  %.1f %.1f %.1f", secs, d.Center.Value, d.Right.Value, d.Left.Value)
	case StateTurning:
		return fmt.Sprintf("%.4f  turning %s  %.1f %.1f %.1f", secs, s.Turn, d.Center.Value, d.Right.Value, d.Left.Value)
	}
	return fmt.Sprintf("  %5.4f |  LM: %5.4f L: %5.1f |  CM: %5.4f C: %5.1f |  RM: %5.4f R: %5.1f  ",
		secs,
		d.Left.Millis, d.Left.Value,
		d.Center.Millis, d.Center.Value,
		d.Right.Millis, d.Right.Value)
}

// Reporter receives samples, e.g. to publish them elsewhere.
type Reporter interface {
	Report(ctx context.Context, s Sample) error
}

// ReportFunc is the func form of Reporter.
type ReportFunc func(ctx context.Context, s Sample) error

// Report implements Reporter.
func (f ReportFunc) Report(ctx context.Context, s Sample) error {
	return f(ctx, s)
}
