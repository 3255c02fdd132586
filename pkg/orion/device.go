// Package orion models the devices attached to an Orion board and routes
// frames between them and the transport.
package orion

import (
	"sync"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
)

// Reserved reading values. Both are valid readings, not errors.
const (
	// Unknown is the value and millis of a device before its first reply.
	Unknown = -1.0
	// NoDetection is the range reading meaning nothing is within range.
	NoDetection = 400.0
)

// Reading is a value paired with the board time it was sampled at.
type Reading struct {
	Value  float64
	Millis float64
}

// Known indicates a value has been received.
func (r Reading) Known() bool {
	return r.Value != Unknown
}

// UnknownReading is the initial reading of every readable device.
var UnknownReading = Reading{Value: Unknown, Millis: Unknown}

// SizePolicy decides what happens when a reply field has the wrong width.
type SizePolicy int

const (
	// HardFail rejects the whole reply.
	HardFail SizePolicy = iota
	// Degrade logs and keeps the previous content of the field.
	Degrade
)

// String implements fmt.Stringer.
func (p SizePolicy) String() string {
	if p == Degrade {
		return "degrade"
	}
	return "hard-fail"
}

// ParsePolicy holds the size policies of the two reply fields.
type ParsePolicy struct {
	Value  SizePolicy
	Millis SizePolicy
}

// Device is anything that can occupy a port.
type Device interface {
	Kind() comm.DeviceKind
	Index() byte
	Port() *Port
	Slot() comm.Slot
	// ParseValue decodes a value field. It never changes stored state.
	ParseValue([]byte) (float64, error)
	// ParseMillis decodes a millis field. It never changes stored state.
	ParseMillis([]byte) (float64, error)

	base() *device
}

// Readable is a device which can be asked for readings.
type Readable interface {
	// RequestRead sends a GET request. The reply is applied asynchronously.
	RequestRead() error
	// Latest returns the latest value.
	Latest() float64
	// LatestReading returns the latest value and millis pair.
	LatestReading() Reading
}

// Writable is a device accepting RUN requests.
type Writable interface {
	Device
	// Write sends a RUN request with a raw payload.
	Write(data []byte) error
}

// Motor is a writable device which can be driven at a speed.
type Motor interface {
	Run(speed int16) error
	Stop() error
}

type device struct {
	kind comm.DeviceKind
	slot comm.Slot
	// wirePort overrides the port id on the wire when non-zero.
	wirePort byte

	lock  sync.RWMutex
	port  *Port
	index byte
}

func (d *device) Kind() comm.DeviceKind { return d.kind }
func (d *device) Slot() comm.Slot       { return d.slot }
func (d *device) base() *device         { return d }

func (d *device) Index() byte {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.index
}

func (d *device) Port() *Port {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.port
}

func (d *device) ParseValue([]byte) (float64, error) {
	return 0, unsupported("parse value", d)
}

func (d *device) ParseMillis([]byte) (float64, error) {
	return 0, unsupported("parse millis", d)
}

func (d *device) bind(p *Port, index byte) {
	d.lock.Lock()
	d.port, d.index = p, index
	d.lock.Unlock()
}

func (d *device) send(action comm.Action, data []byte) error {
	d.lock.RLock()
	port, index := d.port, d.index
	d.lock.RUnlock()
	if port == nil {
		return ErrDetached
	}
	addr := port.id
	if d.wirePort != 0 {
		addr = d.wirePort
	}
	return port.board.send(&comm.Request{
		Index:  index,
		Action: action,
		Kind:   d.kind,
		Port:   addr,
		Slot:   d.slot,
		Data:   data,
	})
}

// write sends a RUN request. Variants accepting RUN expose it as Write.
func (d *device) write(data []byte) error {
	return d.send(comm.ActionRun, data)
}

// Sensor is a readable device.
type Sensor struct {
	device

	width   int
	policy  ParsePolicy
	reading Reading
}

func newSensor(kind comm.DeviceKind, width int, policy ParsePolicy) *Sensor {
	return &Sensor{
		device:  device{kind: kind},
		width:   width,
		policy:  policy,
		reading: UnknownReading,
	}
}

// Observed defaults: range sensors tolerate short values, the others reject
// them. Millis are always tolerated.
var (
	degradeAll  = ParsePolicy{Value: Degrade, Millis: Degrade}
	strictValue = ParsePolicy{Value: HardFail, Millis: Degrade}
)

// NewRangeSensor creates an ultrasonic range sensor reporting centimeters.
func NewRangeSensor() *Sensor { return newSensor(comm.KindUltrasonic, 4, degradeAll) }

// NewLightSensor creates a light sensor.
func NewLightSensor() *Sensor { return newSensor(comm.KindLight, 4, strictValue) }

// NewLineFollower creates a line follower sensor.
func NewLineFollower() *Sensor { return newSensor(comm.KindLineFollower, 4, strictValue) }

// NewPotentiometer creates a potentiometer.
func NewPotentiometer() *Sensor { return newSensor(comm.KindPotentiometer, 4, strictValue) }

// NewSoundSensor creates a sound sensor.
func NewSoundSensor() *Sensor { return newSensor(comm.KindSound, 4, strictValue) }

// NewTemperatureSensor creates a temperature sensor on a slot of its port.
func NewTemperatureSensor(slot comm.Slot) *Sensor {
	s := newSensor(comm.KindTemperature, 4, strictValue)
	s.slot = slot
	return s
}

// ParsePolicy returns the size policies.
func (s *Sensor) ParsePolicy() ParsePolicy {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.policy
}

// SetParsePolicy overrides the size policies.
func (s *Sensor) SetParsePolicy(p ParsePolicy) {
	s.lock.Lock()
	s.policy = p
	s.lock.Unlock()
}

// RequestRead implements Readable.
func (s *Sensor) RequestRead() error {
	return s.send(comm.ActionGet, nil)
}

// Latest implements Readable.
func (s *Sensor) Latest() float64 {
	return s.LatestReading().Value
}

// LatestReading implements Readable.
func (s *Sensor) LatestReading() Reading {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reading
}

// ParseValue implements Device.
func (s *Sensor) ParseValue(b []byte) (float64, error) {
	if s.width == 1 {
		v, err := comm.Byte("value", b)
		return float64(v), err
	}
	v, err := comm.Float32("value", b)
	return float64(v), err
}

// ParseMillis implements Device.
func (s *Sensor) ParseMillis(b []byte) (float64, error) {
	v, err := comm.Float32("millis", b)
	return float64(v), err
}

// applyReply stores both fields of a reply in one step.
func (s *Sensor) applyReply(r *comm.Reply) error {
	value, verr := s.ParseValue(r.Value)
	millis, merr := s.ParseMillis(r.Millis)

	s.lock.Lock()
	defer s.lock.Unlock()
	next := s.reading
	if verr != nil {
		if s.policy.Value == HardFail {
			return verr
		}
		glog.Warningf("%v[%d]: %v, value unchanged", s.kind, s.index, verr)
	} else {
		next.Value = value
	}
	if merr != nil {
		if s.policy.Millis == HardFail {
			return merr
		}
		glog.Warningf("%v[%d]: %v, millis unchanged", s.kind, s.index, merr)
	} else {
		next.Millis = millis
	}
	s.reading = next
	return nil
}
