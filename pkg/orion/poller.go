package orion

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
)

// Poller defaults.
const (
	DefaultPollInterval   = 5 * time.Millisecond
	DefaultPollRetryEvery = 5
)

// Poller waits for a fresh reading after a read request. As requests are
// fire-and-forget, freshness is detected by observing the stored reading
// change.
type Poller struct {
	// Interval is the delay between two checks.
	Interval time.Duration
	// RetryEvery re-sends the request every so many checks.
	RetryEvery int
	// Timeout bounds the wait. Zero waits forever.
	Timeout time.Duration
}

// NewPoller creates a Poller with defaults and no timeout.
func NewPoller() *Poller {
	return &Poller{
		Interval:   DefaultPollInterval,
		RetryEvery: DefaultPollRetryEvery,
	}
}

// PollValue waits until the value differs from the one before the request,
// or reads NoDetection. It can't tell a refreshed but identical value from a
// stale one.
func (p *Poller) PollValue(ctx context.Context, dev Readable) (Reading, error) {
	return p.poll(ctx, dev, func(last, cur Reading) bool {
		return cur.Value != last.Value || cur.Value == NoDetection
	})
}

// PollMillis waits until the millis differ from the ones before the request.
func (p *Poller) PollMillis(ctx context.Context, dev Readable) (Reading, error) {
	return p.poll(ctx, dev, func(last, cur Reading) bool {
		return cur.Millis != last.Millis
	})
}

// PollAll polls the devices one after another by millis.
func (p *Poller) PollAll(ctx context.Context, devs ...Readable) ([]Reading, error) {
	readings := make([]Reading, len(devs))
	for n, dev := range devs {
		r, err := p.PollMillis(ctx, dev)
		if err != nil {
			return readings, err
		}
		readings[n] = r
	}
	return readings, nil
}

func (p *Poller) poll(ctx context.Context, dev Readable, fresh func(last, cur Reading) bool) (Reading, error) {
	interval, retryEvery := p.Interval, p.RetryEvery
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if retryEvery <= 0 {
		retryEvery = DefaultPollRetryEvery
	}

	start := time.Now()
	last := dev.LatestReading()
	if err := p.request(dev); err != nil {
		return last, err
	}
	var deadline <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cur, checks := last, 0
	for !fresh(last, cur) {
		select {
		case <-ctx.Done():
			return cur, ctx.Err()
		case <-deadline:
			return cur, &StalledPollError{Waited: time.Since(start), Checks: checks}
		case <-ticker.C:
		}
		cur = dev.LatestReading()
		checks++
		if glog.V(4) {
			glog.Infof("waiting on reading: last=%v cur=%v checks=%d", last, cur, checks)
		}
		if checks%retryEvery == 0 && !fresh(last, cur) {
			if err := p.request(dev); err != nil {
				return cur, err
			}
		}
	}
	return cur, nil
}

// request sends a read request. A failed send is retried by the poll loop,
// unless the device can never be reached again.
func (p *Poller) request(dev Readable) error {
	err := dev.RequestRead()
	if err == nil || permanent(err) {
		return err
	}
	glog.Warningf("read request failed, retrying: %v", err)
	return nil
}

func permanent(err error) bool {
	return errors.Is(err, comm.ErrClosed) ||
		errors.Is(err, ErrDetached) ||
		errors.Is(err, ErrNoSender)
}
