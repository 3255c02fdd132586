package sim

import "github.com/fermigas/Autonomy/pkg/orion"

// rangeStep is the resolution of ray marching in centimeters.
const rangeStep = 0.5

// World is a floor with rectangular obstacles.
type World struct {
	Obstacles []Rect
	// MaxRange is the farthest distance a range sensor reports.
	MaxRange float64
}

// NewArena creates a square room of size cm with walls 10cm thick.
func NewArena(size float64) *World {
	const wall = 10
	return &World{
		Obstacles: []Rect{
			{Min: Pos2D{X: -wall, Y: -wall}, Max: Pos2D{X: size + wall, Y: 0}},
			{Min: Pos2D{X: -wall, Y: size}, Max: Pos2D{X: size + wall, Y: size + wall}},
			{Min: Pos2D{X: -wall, Y: 0}, Max: Pos2D{X: 0, Y: size}},
			{Min: Pos2D{X: size, Y: 0}, Max: Pos2D{X: size + wall, Y: size}},
		},
		MaxRange: 300,
	}
}

// Blocked tells whether p is inside an obstacle.
func (w *World) Blocked(p Pos2D) bool {
	for _, r := range w.Obstacles {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Range returns the distance to the closest obstacle along the pose's
// heading, or orion.NoDetection beyond MaxRange.
func (w *World) Range(from Pose2D) float64 {
	for d := 0.0; d <= w.MaxRange; d += rangeStep {
		if w.Blocked(from.Pos2D.Add(from.Heading.Project(d))) {
			return d
		}
	}
	return orion.NoDetection
}
