package comm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Preamble starts every frame in both directions.
var Preamble = [2]byte{0xff, 0x55}

// frame header: preamble + length byte.
const headerLen = 3

// MaxBodyLen is the largest body a length byte can describe.
const MaxBodyLen = 0xff

// Action is the request action code.
type Action byte

// Actions
const (
	ActionGet   Action = 0x01
	ActionRun   Action = 0x02
	ActionReset Action = 0x04
	ActionStart Action = 0x05
)

// IsValid checks if it's a known action code.
func (a Action) IsValid() bool {
	switch a {
	case ActionGet, ActionRun, ActionReset, ActionStart:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionGet:
		return "GET"
	case ActionRun:
		return "RUN"
	case ActionReset:
		return "RESET"
	case ActionStart:
		return "START"
	}
	return fmt.Sprintf("Action(%#04x)", byte(a))
}

// DeviceKind is the device type code understood by the firmware.
type DeviceKind byte

// Device kinds
const (
	KindUltrasonic    DeviceKind = 0x01
	KindTemperature   DeviceKind = 0x02
	KindLight         DeviceKind = 0x03
	KindPotentiometer DeviceKind = 0x04
	KindSound         DeviceKind = 0x07
	KindSevenSegment  DeviceKind = 0x09
	KindDCMotor       DeviceKind = 0x0a
	KindEncoderMotor  DeviceKind = 0x0c
	KindPIRMotion     DeviceKind = 0x0f
	KindLineFollower  DeviceKind = 0x11
)

var kindNames = map[DeviceKind]string{
	KindUltrasonic:    "ultrasonic",
	KindTemperature:   "temperature",
	KindLight:         "light",
	KindPotentiometer: "potentiometer",
	KindSound:         "sound",
	KindSevenSegment:  "seven-segment",
	KindDCMotor:       "dc-motor",
	KindEncoderMotor:  "encoder-motor",
	KindPIRMotion:     "pir-motion",
	KindLineFollower:  "line-follower",
}

// IsValid checks if it's a known device kind.
func (k DeviceKind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// Slotted indicates requests for this kind carry a slot byte.
func (k DeviceKind) Slotted() bool {
	return k == KindTemperature || k == KindEncoderMotor
}

// String implements fmt.Stringer.
func (k DeviceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DeviceKind(%#04x)", byte(k))
}

// Slot addresses a sub-unit within a port.
type Slot byte

// Slots
const (
	SlotNone Slot = 0
	Slot1    Slot = 1
	Slot2    Slot = 2
)

// IsValid checks if it's an addressable slot.
func (s Slot) IsValid() bool {
	return s == Slot1 || s == Slot2
}

// Request is an outbound command frame.
type Request struct {
	Index  byte
	Action Action
	Kind   DeviceKind
	Port   byte
	Slot   Slot
	Data   []byte
}

func (r *Request) bodyLen() int {
	n := 4 + len(r.Data)
	if r.Slot != SlotNone {
		n++
	}
	return n
}

// Validate checks the request can be encoded and decoded unambiguously.
func (r *Request) Validate() error {
	if !r.Action.IsValid() {
		return fmt.Errorf("invalid action %v", r.Action)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("invalid device kind %v", r.Kind)
	}
	if r.Kind.Slotted() {
		if !r.Slot.IsValid() {
			return fmt.Errorf("%v requires a slot, got %d", r.Kind, r.Slot)
		}
	} else if r.Slot != SlotNone {
		return fmt.Errorf("%v does not take a slot", r.Kind)
	}
	if n := r.bodyLen(); n > MaxBodyLen {
		return fmt.Errorf("request too large: %d bytes", n)
	}
	return nil
}

// Bytes returns encoded bytes for sending.
func (r *Request) Bytes() []byte {
	n := r.bodyLen()
	b := make([]byte, 0, headerLen+n)
	b = append(b, Preamble[0], Preamble[1], byte(n),
		r.Index, byte(r.Action), byte(r.Kind), r.Port)
	if r.Slot != SlotNone {
		b = append(b, byte(r.Slot))
	}
	return append(b, r.Data...)
}

// WriteTo writes encoded bytes.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (r *Request) String() string {
	return fmt.Sprintf("%v idx=%d %v port=%#04x slot=%d data=% x",
		r.Action, r.Index, r.Kind, r.Port, r.Slot, r.Data)
}

// DecodeRequest decodes a request frame. The kind code determines whether a
// slot byte is present.
func DecodeRequest(frame []byte) (*Request, error) {
	body, err := frameBody(frame)
	if err != nil {
		return nil, err
	}
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: request body too short (%d bytes)", ErrMalformedFrame, len(body))
	}
	r := &Request{
		Index:  body[0],
		Action: Action(body[1]),
		Kind:   DeviceKind(body[2]),
		Port:   body[3],
	}
	data := body[4:]
	if r.Kind.Slotted() {
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: missing slot for %v", ErrMalformedFrame, r.Kind)
		}
		r.Slot, data = Slot(data[0]), data[1:]
	}
	if len(data) > 0 {
		r.Data = append([]byte(nil), data...)
	}
	return r, nil
}

// Reply is an inbound frame carrying a device reading.
type Reply struct {
	Index  byte
	Value  []byte
	Millis []byte
}

// Bytes returns the encoded reply frame.
func (r *Reply) Bytes() []byte {
	n := 3 + len(r.Value) + len(r.Millis)
	b := make([]byte, 0, headerLen+n)
	b = append(b, Preamble[0], Preamble[1], byte(n), r.Index, byte(len(r.Value)))
	b = append(b, r.Value...)
	b = append(b, byte(len(r.Millis)))
	return append(b, r.Millis...)
}

// DecodeReply splits a reply frame into its index and the two payload
// segments.
func DecodeReply(frame []byte) (*Reply, error) {
	body, err := frameBody(frame)
	if err != nil {
		return nil, err
	}
	if len(body) < 3 {
		return nil, fmt.Errorf("%w: reply body too short (%d bytes)", ErrMalformedFrame, len(body))
	}
	valueLen := int(body[1])
	if 2+valueLen >= len(body) {
		return nil, &MalformedFrameError{Declared: len(body), Actual: 3 + valueLen}
	}
	millisLen := int(body[2+valueLen])
	if actual := 3 + valueLen + millisLen; actual != len(body) {
		return nil, &MalformedFrameError{Declared: len(body), Actual: actual}
	}
	return &Reply{
		Index:  body[0],
		Value:  append([]byte(nil), body[2:2+valueLen]...),
		Millis: append([]byte(nil), body[3+valueLen:]...),
	}, nil
}

func frameBody(frame []byte) ([]byte, error) {
	if len(frame) < headerLen {
		return nil, fmt.Errorf("%w: frame too short (%d bytes)", ErrMalformedFrame, len(frame))
	}
	if frame[0] != Preamble[0] || frame[1] != Preamble[1] {
		return nil, fmt.Errorf("%w: bad preamble % x", ErrMalformedFrame, frame[:2])
	}
	if declared, actual := int(frame[2]), len(frame)-headerLen; declared != actual {
		return nil, &MalformedFrameError{Declared: declared, Actual: actual}
	}
	return frame[headerLen:], nil
}

// Float32 decodes exactly 4 little-endian bytes.
func Float32(field string, b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, &PayloadSizeError{Field: field, Expected: 4, Actual: len(b)}
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// Byte decodes exactly 1 byte.
func Byte(field string, b []byte) (byte, error) {
	if len(b) != 1 {
		return 0, &PayloadSizeError{Field: field, Expected: 1, Actual: len(b)}
	}
	return b[0], nil
}

// AppendFloat32 appends v in little-endian order.
func AppendFloat32(b []byte, v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(b, buf[:]...)
}

// AppendInt16 appends v in little-endian order.
func AppendInt16(b []byte, v int16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	return append(b, buf[:]...)
}
