package sh

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/avoid"
	"github.com/fermigas/Autonomy/pkg/framework"
	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// DefaultSenseTimeout bounds a sense command when the poller has no timeout.
const DefaultSenseTimeout = time.Second

// Session is an open board with the robot attached.
type Session struct {
	Board   *orion.Board
	Robot   *avoid.Robot
	Drive   *avoid.Drive
	Poller  *orion.Poller
	Display *orion.Display
	Speed   int16

	fifo   *comm.FIFO
	cancel context.CancelFunc
	done   chan error
}

// NewSession attaches the robot, and a display if displayPort isn't zero,
// then starts draining replies.
func NewSession(board *orion.Board, fifo *comm.FIFO, layout avoid.Layout, displayPort byte) (*Session, error) {
	robot, err := avoid.NewRobot(board, layout)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Board:  board,
		Robot:  robot,
		Drive:  robot.Drive(),
		Poller: orion.NewPoller(),
		Speed:  100,
		fifo:   fifo,
		done:   make(chan error, 1),
	}
	if displayPort != 0 {
		s.Display = orion.NewDisplay()
		if err := board.Attach(displayPort, s.Display); err != nil {
			return nil, fmt.Errorf("attach display: %v", err)
		}
	}
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go func() { s.done <- fifo.Run(ctx) }()
	return s, nil
}

// Sense polls the three range sensors.
func (s *Session) Sense(ctx context.Context) (avoid.Distances, error) {
	if s.Poller.Timeout == 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultSenseTimeout)
		defer cancel()
	}
	readings, err := s.Poller.PollAll(ctx, s.Robot.Sensors()...)
	if err != nil {
		return avoid.Distances{}, err
	}
	return avoid.Distances{Left: readings[0], Center: readings[1], Right: readings[2]}, nil
}

// Move drives in direction, which is one of forward, backward, left, right
// and stop.
func (s *Session) Move(direction string, speed int16) error {
	switch direction {
	case "forward":
		return s.Drive.Forward(speed)
	case "backward":
		return s.Drive.Backward(speed)
	case "left":
		return s.Drive.TurnLeft(speed)
	case "right":
		return s.Drive.TurnRight(speed)
	case "stop":
		return s.Drive.Stop()
	}
	return fmt.Errorf("unknown direction %q", direction)
}

// ShowValue shows v on the display.
func (s *Session) ShowValue(v float32) error {
	if s.Display == nil {
		return fmt.Errorf("no display attached")
	}
	return s.Display.SetValue(v)
}

// Devices lists attached devices, one per line.
func (s *Session) Devices() []string {
	devs := s.Board.Devices()
	lines := make([]string, 0, len(devs))
	for _, dev := range devs {
		line := fmt.Sprintf("%3d  port %#04x  %v", dev.Index(), dev.Port().ID(), dev.Kind())
		if slot := dev.Slot(); slot != comm.SlotNone {
			line += fmt.Sprintf(" slot %d", slot)
		}
		lines = append(lines, line)
	}
	return lines
}

// Stats formats transport counters.
func (s *Session) Stats() string {
	st := s.fifo.Stats()
	return fmt.Sprintf("replies: %d dropped: %d", st.Replies, st.Dropped)
}

// Close stops the motors and closes the board.
func (s *Session) Close() error {
	var errs framework.AggregatedError
	if err := s.Drive.Stop(); err != nil && err != comm.ErrClosed {
		errs.Add(err)
	}
	errs.Add(s.fifo.Close())
	s.cancel()
	if err := <-s.done; err != nil && err != context.Canceled {
		glog.Warningf("fifo: %v", err)
	}
	return errs.Aggregate()
}

// FormatDistances prints distances as "L:  12.3 C:  45.6 R:  78.9".
func FormatDistances(d avoid.Distances) string {
	return fmt.Sprintf("L: %5.1f C: %5.1f R: %5.1f", d.Left.Value, d.Center.Value, d.Right.Value)
}
