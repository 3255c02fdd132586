package avoid

import (
	"github.com/fermigas/Autonomy/pkg/framework"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// Drive moves a differential drive robot. The motors are mounted facing
// each other, so driving straight runs them in opposite directions.
type Drive struct {
	Left  orion.Motor
	Right orion.Motor
}

func (d *Drive) run(left, right int16) error {
	var errs framework.AggregatedError
	errs.Add(d.Left.Run(left), d.Right.Run(right))
	return errs.Aggregate()
}

// Forward drives forward.
func (d *Drive) Forward(speed int16) error { return d.run(speed, -speed) }

// Backward drives backward.
func (d *Drive) Backward(speed int16) error { return d.run(-speed, speed) }

// TurnLeft spins left in place.
func (d *Drive) TurnLeft(speed int16) error { return d.run(-speed, -speed) }

// TurnRight spins right in place.
func (d *Drive) TurnRight(speed int16) error { return d.run(speed, speed) }

// Turn spins towards dir.
func (d *Drive) Turn(dir Direction, speed int16) error {
	if dir == TurnLeft {
		return d.TurnLeft(speed)
	}
	return d.TurnRight(speed)
}

// Stop stops both motors.
func (d *Drive) Stop() error {
	var errs framework.AggregatedError
	errs.Add(d.Right.Stop(), d.Left.Stop())
	return errs.Aggregate()
}

// Direction is a turning direction.
type Direction int

// Directions
const (
	TurnRight Direction = iota
	TurnLeft
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == TurnLeft {
		return "left"
	}
	return "right"
}

// TurnTowardsFurthest picks the side with more room. Ties turn right.
func TurnTowardsFurthest(left, right float64) Direction {
	if left > right {
		return TurnLeft
	}
	return TurnRight
}
