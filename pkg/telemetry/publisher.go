package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/protobuf/proto"

	"github.com/fermigas/Autonomy/pkg/avoid"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// DefaultAnnounceTimeout bounds waiting for the broker to take the meta.
const DefaultAnnounceTimeout = 5 * time.Second

// Pubber publishes payloads to topics. Queue implements it.
type Pubber interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Publisher publishes controller samples as Status messages to
// "<type>/<id>/status". It implements avoid.Reporter.
type Publisher struct {
	Queue Pubber
	Robot RobotRef
	// Interval is the minimum time between two statuses in the same state.
	Interval time.Duration

	lock      sync.Mutex
	last      time.Time
	lastState avoid.State
	published uint64

	now func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(q Pubber, robot RobotRef) *Publisher {
	return &Publisher{Queue: q, Robot: robot, now: time.Now}
}

// Announce publishes the retained meta of the robot.
func (p *Publisher) Announce(meta Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	token := p.Queue.PubWith(p.Robot.Topic(TopicMeta), data, 1, true)
	token.WaitTimeout(DefaultAnnounceTimeout)
	return token.Error()
}

// Report implements avoid.Reporter. Samples arriving faster than Interval
// are skipped unless the state changed.
func (p *Publisher) Report(ctx context.Context, s avoid.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := p.now()
	p.lock.Lock()
	skip := s.State == p.lastState && !p.last.IsZero() && now.Sub(p.last) < p.Interval
	if !skip {
		p.last, p.lastState = now, s.State
		p.published++
	}
	p.lock.Unlock()
	if skip {
		return nil
	}
	data, err := proto.Marshal(NewStatus(p.Robot, s, now))
	if err != nil {
		return err
	}
	return p.Queue.PubWith(p.Robot.Topic(TopicStatus), data, 0, false).Error()
}

// Published returns the number of statuses published.
func (p *Publisher) Published() uint64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.published
}

// NewStatus converts a controller sample.
func NewStatus(robot RobotRef, s avoid.Sample, at time.Time) *Status {
	status := &Status{
		Robot:     robot.Name(),
		Timestamp: at.UnixNano(),
		ElapsedMs: int64(s.Elapsed / time.Millisecond),
		State:     s.State.String(),
		Left:      newSensorReading(s.Distances.Left),
		Center:    newSensorReading(s.Distances.Center),
		Right:     newSensorReading(s.Distances.Right),
	}
	if s.State == avoid.StateTurning {
		status.Turn = s.Turn.String()
	}
	return status
}

func newSensorReading(r orion.Reading) *SensorReading {
	return &SensorReading{Value: r.Value, Millis: r.Millis}
}
