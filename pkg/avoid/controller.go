package avoid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/framework"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// Controller drives the robot forward and steers it away from obstacles
// seen by three range sensors.
type Controller struct {
	Config *Config

	Left   orion.Readable
	Center orion.Readable
	Right  orion.Readable
	Drive  *Drive
	Poller *orion.Poller

	// Transport is closed when the controller exits.
	Transport io.Closer
	// Status receives human readable status lines if not nil.
	Status io.Writer
	// Reporter receives a Sample every completed cycle if not nil.
	Reporter Reporter

	state State
	dist  Distances
	turn  Direction
	start time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewController creates a controller for the robot.
func NewController(conf *Config, robot *Robot, poller *orion.Poller, transport io.Closer) *Controller {
	return &Controller{
		Config:    conf,
		Left:      robot.Left,
		Center:    robot.Center,
		Right:     robot.Right,
		Drive:     robot.Drive(),
		Poller:    poller,
		Transport: transport,
		dist: Distances{
			Left:   orion.UnknownReading,
			Center: orion.UnknownReading,
			Right:  orion.UnknownReading,
		},
	}
}

// Name implements framework.Named.
func (c *Controller) Name() string {
	return "avoid"
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Distances returns the last sampled distances.
func (c *Controller) Distances() Distances {
	return c.dist
}

// Run implements framework.Runnable. It primes the sensors and steps the
// state machine until ctx is done. Both motors are stopped and the
// transport is closed on every exit path.
func (c *Controller) Run(ctx context.Context) (err error) {
	defer func() {
		err = c.shutdown(err)
	}()
	c.reset()
	if err = c.Prime(ctx); err != nil {
		return err
	}
	for {
		if err = c.Step(ctx); err != nil {
			return err
		}
	}
}

func (c *Controller) reset() {
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.start.IsZero() {
		c.start = c.now()
	}
}

// Prime blocks until all three sensors have reported a value.
func (c *Controller) Prime(ctx context.Context) error {
	c.reset()
	c.state = StatePriming
	sensors := []orion.Readable{c.Left, c.Center, c.Right}
	for {
		c.dist = Distances{
			Left:   c.Left.LatestReading(),
			Center: c.Center.LatestReading(),
			Right:  c.Right.LatestReading(),
		}
		if c.dist.Known() {
			c.state = StateCruising
			glog.Infof("primed: %v", c.sample())
			return nil
		}
		for _, dev := range sensors {
			if err := dev.RequestRead(); err != nil {
				glog.Warningf("prime request: %v", err)
			}
			if err := c.sleep(ctx, c.Config.PrimeInterval); err != nil {
				return err
			}
		}
		c.printStatus()
	}
}

// Step runs one cycle of the current state.
func (c *Controller) Step(ctx context.Context) error {
	c.reset()
	switch c.state {
	case StatePriming:
		return c.Prime(ctx)
	case StateCruising:
		return c.cruise(ctx)
	case StateRetreating:
		return c.retreat(ctx)
	case StateTurning:
		return c.turnAway(ctx)
	}
	return fmt.Errorf("invalid state %v", c.state)
}

func (c *Controller) speed() int16 {
	return int16(c.Config.Speed)
}

func (c *Controller) cruise(ctx context.Context) error {
	if c.dist.Blocked(c.Config.Threshold) {
		c.state = StateRetreating
		return nil
	}
	c.actuate("forward", c.Drive.Forward(c.speed()))
	if err := c.sleep(ctx, c.Config.SamplingPeriod); err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		if errors.Is(err, orion.ErrStalledPoll) {
			glog.Warningf("cruising: %v, retreating", err)
			c.state = StateRetreating
			return nil
		}
		return err
	}
	c.printStatus()
	c.report(ctx)
	return nil
}

func (c *Controller) retreat(ctx context.Context) error {
	if err := c.stopFor(ctx, c.Config.Settle); err != nil {
		return err
	}
	c.actuate("backward", c.Drive.Backward(c.speed()))
	if err := c.sleep(ctx, c.Config.Retreat); err != nil {
		return err
	}
	if err := c.stopFor(ctx, c.Config.StopDelay); err != nil {
		return err
	}
	c.printStatus()
	c.report(ctx)
	c.state = StateTurning
	return nil
}

func (c *Controller) turnAway(ctx context.Context) error {
	c.turn = TurnTowardsFurthest(c.dist.Left.Value, c.dist.Right.Value)
	c.actuate("turn "+c.turn.String(), c.Drive.Turn(c.turn, c.speed()))
	if err := c.sleep(ctx, c.Config.TurnHold); err != nil {
		return err
	}
	if err := c.stopFor(ctx, c.Config.StopDelay); err != nil {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		if errors.Is(err, orion.ErrStalledPoll) {
			glog.Warningf("turning: %v, turning again", err)
			return nil
		}
		return err
	}
	c.printStatus()
	c.report(ctx)
	if !c.dist.Blocked(c.Config.Threshold) {
		c.state = StateCruising
	}
	return nil
}

// refresh polls all three sensors. Distances are only updated when all of
// them are fresh.
func (c *Controller) refresh(ctx context.Context) error {
	readings, err := c.Poller.PollAll(ctx, c.Left, c.Center, c.Right)
	if err != nil {
		return err
	}
	c.dist = Distances{Left: readings[0], Center: readings[1], Right: readings[2]}
	return nil
}

func (c *Controller) stopFor(ctx context.Context, d time.Duration) error {
	c.actuate("stop", c.Drive.Stop())
	return c.sleep(ctx, d)
}

// actuate logs failed motor commands. A lost command is not fatal: the next
// cycle issues it again.
func (c *Controller) actuate(what string, err error) {
	if err != nil {
		glog.Warningf("%s: %v", what, err)
	}
}

func (c *Controller) sample() Sample {
	return Sample{
		Elapsed:   c.now().Sub(c.start),
		State:     c.state,
		Distances: c.dist,
		Turn:      c.turn,
	}
}

func (c *Controller) printStatus() {
	if c.Status != nil {
		fmt.Fprintln(c.Status, c.sample().String())
	}
}

func (c *Controller) report(ctx context.Context) {
	if c.Reporter == nil {
		return
	}
	if err := c.Reporter.Report(ctx, c.sample()); err != nil {
		glog.Warningf("report: %v", err)
	}
}

func (c *Controller) shutdown(cause error) error {
	stopErr := c.Drive.Stop()
	// the stop frames must leave before the transport goes away.
	c.sleep(context.Background(), c.Config.StopDelay)
	var closeErr error
	if c.Transport != nil {
		closeErr = c.Transport.Close()
	}
	glog.Infof("controller stopped in state %v", c.state)
	return framework.WithCleanup(cause, stopErr, closeErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
