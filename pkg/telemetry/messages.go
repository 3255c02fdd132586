package telemetry

import (
	"github.com/golang/protobuf/proto"
)

// SensorReading is a range reading and the board millis it was taken at.
type SensorReading struct {
	Value  float64 `protobuf:"fixed64,1,opt,name=value,proto3" json:"value,omitempty"`
	Millis float64 `protobuf:"fixed64,2,opt,name=millis,proto3" json:"millis,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SensorReading) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SensorReading) Reset() { *m = SensorReading{} }

// String implements proto.Message.
func (m *SensorReading) String() string { return proto.CompactTextString(m) }

// Status is published by a robot every control cycle.
type Status struct {
	Robot     string         `protobuf:"bytes,1,opt,name=robot,proto3" json:"robot,omitempty"`
	Timestamp int64          `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	ElapsedMs int64          `protobuf:"varint,3,opt,name=elapsed_ms,proto3" json:"elapsed_ms,omitempty"`
	State     string         `protobuf:"bytes,4,opt,name=state,proto3" json:"state,omitempty"`
	Turn      string         `protobuf:"bytes,5,opt,name=turn,proto3" json:"turn,omitempty"`
	Left      *SensorReading `protobuf:"bytes,6,opt,name=left,proto3" json:"left,omitempty"`
	Center    *SensorReading `protobuf:"bytes,7,opt,name=center,proto3" json:"center,omitempty"`
	Right     *SensorReading `protobuf:"bytes,8,opt,name=right,proto3" json:"right,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// DecodeStatus decodes a Status payload.
func DecodeStatus(data []byte) (*Status, error) {
	var s Status
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
