package avoid

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/orion"
	"github.com/fermigas/Autonomy/pkg/sim"
)

var (
	fwd   = []sim.MotorCommand{{Slot: comm.Slot2, Speed: 100}, {Slot: comm.Slot1, Speed: -100}}
	back  = []sim.MotorCommand{{Slot: comm.Slot2, Speed: -100}, {Slot: comm.Slot1, Speed: 100}}
	right = []sim.MotorCommand{{Slot: comm.Slot2, Speed: 100}, {Slot: comm.Slot1, Speed: 100}}
	stop  = []sim.MotorCommand{{Slot: comm.Slot1, Speed: 0}, {Slot: comm.Slot2, Speed: 0}}
)

func cmds(seqs ...[]sim.MotorCommand) (all []sim.MotorCommand) {
	for _, seq := range seqs {
		all = append(all, seq...)
	}
	return
}

type testRig struct {
	board    *sim.Orion
	fifo     *comm.FIFO
	registry *orion.Board
	robot    *Robot
	ctl      *Controller
}

// newTestRig wires a controller to a simulated board whose range sensors
// report fixed distances.
func newTestRig(t *testing.T, left, center, right float64) *testRig {
	o := sim.NewConfig().NewOrion()
	o.SetRange(orion.Port8, left)
	o.SetRange(orion.Port3, center)
	o.SetRange(orion.Port4, right)

	fifo := comm.NewFIFO(o)
	board := orion.NewBoard(fifo)
	fifo.Handler = board
	robot, err := NewRobot(board, DefaultLayout)
	require.NoError(t, err)

	poller := &orion.Poller{Interval: time.Millisecond, RetryEvery: 5, Timeout: 50 * time.Millisecond}
	ctl := NewController(NewConfig(), robot, poller, fifo)
	ctl.sleep = func(ctx context.Context, d time.Duration) error {
		time.Sleep(100 * time.Microsecond)
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fifo.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		fifo.Close()
		<-done
	})
	return &testRig{board: o, fifo: fifo, registry: board, robot: robot, ctl: ctl}
}

func (r *testRig) prime(t *testing.T) {
	require.NoError(t, r.ctl.Prime(context.Background()))
	require.Equal(t, StateCruising, r.ctl.State())
}

func (r *testRig) step(t *testing.T, expect State) {
	require.NoError(t, r.ctl.Step(context.Background()))
	require.Equal(t, expect, r.ctl.State())
}

func TestPrimeWaitsForAllSensors(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.board.Mute(orion.Port4, true)

	var calls int
	rig.ctl.sleep = func(ctx context.Context, d time.Duration) error {
		require.Equal(t, StatePriming, rig.ctl.State())
		require.Equal(t, rig.ctl.Config.PrimeInterval, d)
		if calls++; calls == 30 {
			rig.board.Mute(orion.Port4, false)
		}
		time.Sleep(100 * time.Microsecond)
		return nil
	}
	rig.prime(t)
	require.True(t, calls >= 30)
	require.True(t, rig.ctl.Distances().Known())
	require.Equal(t, 50.0, rig.ctl.Distances().Right.Value)
}

func TestPrimeCancel(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.board.Mute(orion.Port3, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, rig.ctl.Prime(ctx))
	require.Equal(t, StatePriming, rig.ctl.State())
}

func TestCruiseWhenClear(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.prime(t)
	for n := 0; n < 3; n++ {
		rig.step(t, StateCruising)
	}
	require.Equal(t, cmds(fwd, fwd, fwd), rig.board.MotorLog())
	require.Equal(t, 50.0, rig.ctl.Distances().Center.Value)
}

func TestRetreatThenTurnAway(t *testing.T) {
	rig := newTestRig(t, 10, 50, 50)
	rig.prime(t)

	rig.step(t, StateRetreating)
	require.Empty(t, rig.board.MotorLog(), "no forward when blocked")

	rig.step(t, StateTurning)
	require.Equal(t, cmds(stop, back, stop), rig.board.MotorLog())

	// right has more room.
	rig.board.SetRange(orion.Port8, 50)
	rig.step(t, StateCruising)
	require.Equal(t, cmds(stop, back, stop, right, stop), rig.board.MotorLog())

	rig.step(t, StateCruising)
	require.Equal(t, cmds(stop, back, stop, right, stop, fwd), rig.board.MotorLog())
}

func TestTurnTieTurnsRight(t *testing.T) {
	rig := newTestRig(t, 29.9, 50, 29.9)
	rig.prime(t)
	rig.step(t, StateRetreating)
	rig.step(t, StateTurning)
	// both sides still blocked.
	rig.step(t, StateTurning)
	rig.step(t, StateTurning)
	require.Equal(t, cmds(stop, back, stop, right, stop, right, stop), rig.board.MotorLog())
}

func TestTurnTowardsFurthest(t *testing.T) {
	testCases := []struct {
		left, right float64
		expect      Direction
	}{
		{29.9, 29.9, TurnRight},
		{10, 50, TurnRight},
		{50, 10, TurnLeft},
		{30.1, 30, TurnLeft},
		{orion.NoDetection, 20, TurnLeft},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, TurnTowardsFurthest(tc.left, tc.right), "left=%v right=%v", tc.left, tc.right)
	}
}

func TestStalledPollWhileCruising(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.prime(t)
	rig.board.Mute(orion.Port3, true)
	rig.step(t, StateRetreating)
}

func TestStalledPollWhileTurning(t *testing.T) {
	rig := newTestRig(t, 10, 50, 50)
	rig.prime(t)
	rig.step(t, StateRetreating)
	rig.step(t, StateTurning)
	rig.board.SetRange(orion.Port8, 50)
	rig.board.Mute(orion.Port4, true)
	rig.step(t, StateTurning)

	rig.board.Mute(orion.Port4, false)
	rig.step(t, StateCruising)
}

// flakySender fails the next GET requests before passing them on.
type flakySender struct {
	orion.Sender

	lock  sync.Mutex
	fails int
}

func (s *flakySender) failNext(n int) {
	s.lock.Lock()
	s.fails += n
	s.lock.Unlock()
}

func (s *flakySender) Send(req *comm.Request) error {
	s.lock.Lock()
	fail := req.Action == comm.ActionGet && s.fails > 0
	if fail {
		s.fails--
	}
	s.lock.Unlock()
	if fail {
		return errors.New("write: resource temporarily unavailable")
	}
	return s.Sender.Send(req)
}

func TestTransientSendErrorKeepsRunning(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.prime(t)
	flaky := &flakySender{Sender: rig.fifo}
	rig.registry.Sender = flaky
	rig.ctl.Poller.Timeout = 0

	flaky.failNext(1)
	rig.step(t, StateCruising)
	flaky.failNext(3)
	rig.step(t, StateCruising)
	require.Equal(t, cmds(fwd, fwd), rig.board.MotorLog())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rig.ctl.Run(ctx) }()
	flaky.failNext(2)
	require.Eventually(t, func() bool {
		return len(rig.board.MotorLog()) >= 6
	}, time.Second, time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("controller exited: %v", err)
	default:
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestMalformedReplyIgnored(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.prime(t)
	before := rig.robot.Left.LatestReading()

	rig.board.SetRange(orion.Port8, 5)
	rig.board.CorruptNext(1)
	require.NoError(t, rig.robot.Left.RequestRead())
	require.Eventually(t, func() bool {
		return rig.fifo.Stats().Dropped == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, before, rig.robot.Left.LatestReading())

	rig.board.SetRange(orion.Port8, 50)
	rig.step(t, StateCruising)
	require.Equal(t, uint64(1), rig.fifo.Stats().Dropped)
}

func TestStatusAndReport(t *testing.T) {
	rig := newTestRig(t, 50, 60, 70)
	var status bytes.Buffer
	var samples []Sample
	rig.ctl.Status = &status
	rig.ctl.Reporter = ReportFunc(func(ctx context.Context, s Sample) error {
		samples = append(samples, s)
		return errors.New("broker gone")
	})
	rig.prime(t)
	rig.step(t, StateCruising)
	rig.step(t, StateCruising)

	require.Len(t, samples, 2)
	for _, s := range samples {
		require.Equal(t, StateCruising, s.State)
		require.Equal(t, 50.0, s.Distances.Left.Value)
		require.Equal(t, 60.0, s.Distances.Center.Value)
		require.Equal(t, 70.0, s.Distances.Right.Value)
	}
	require.True(t, samples[1].Distances.Left.Millis > samples[0].Distances.Left.Millis)
	require.Contains(t, status.String(), "L:  50.0 |  CM:")
}

func TestReportEveryState(t *testing.T) {
	rig := newTestRig(t, 10, 50, 50)
	var samples []Sample
	rig.ctl.Reporter = ReportFunc(func(ctx context.Context, s Sample) error {
		samples = append(samples, s)
		return nil
	})
	rig.prime(t)
	rig.step(t, StateRetreating)
	require.Empty(t, samples, "blocked check alone reports nothing")
	rig.step(t, StateTurning)
	rig.board.SetRange(orion.Port8, 50)
	rig.step(t, StateCruising)
	rig.step(t, StateCruising)

	var states []State
	for _, s := range samples {
		states = append(states, s.State)
	}
	require.Equal(t, []State{StateRetreating, StateTurning, StateCruising}, states)
	require.Equal(t, TurnRight, samples[1].Turn)
}

func TestRunReleasesOnCancel(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, rig.ctl.Run(ctx))
	require.Equal(t, stop, rig.board.MotorLog())
	require.Equal(t, comm.ErrClosed, rig.robot.Left.RequestRead())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunAggregatesShutdownErrors(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	rig.ctl.Transport = closerFunc(func() error { return errors.New("close failed") })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := rig.ctl.Run(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "close failed")
}

func TestRunUntilCancel(t *testing.T) {
	rig := newTestRig(t, 50, 50, 50)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rig.ctl.Run(ctx) }()
	require.Eventually(t, func() bool {
		return len(rig.board.MotorLog()) >= 4
	}, time.Second, time.Millisecond)
	cancel()
	require.Equal(t, context.Canceled, <-done)
	log := rig.board.MotorLog()
	require.Equal(t, stop, log[len(log)-2:])
}
