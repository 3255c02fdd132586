package orion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
)

func TestDeviceRequests(t *testing.T) {
	sender := &recordingSender{}
	b := NewBoard(sender)
	us := NewRangeSensor()
	temp := NewTemperatureSensor(comm.Slot2)
	gray := NewGrayscaleSensor()
	motion := NewMotionSensor()
	display := NewDisplay()
	dc := NewDCMotor()
	right, left := NewEncoderMotor(comm.Slot1), NewEncoderMotor(comm.Slot2)
	b.MustAttach(Port3, us)
	b.MustAttach(Port6, temp)
	b.MustAttach(Port7, gray)
	b.MustAttach(Port5, motion)
	b.MustAttach(Port2, display)
	b.MustAttach(Port1, dc)
	b.MustAttach(PortM1, right)
	b.MustAttach(PortM2, left)

	testCases := []struct {
		name   string
		op     func() error
		expect comm.Request
	}{
		{"read range", us.RequestRead,
			comm.Request{Index: 0, Action: comm.ActionGet, Kind: comm.KindUltrasonic, Port: Port3}},
		{"read temperature", temp.RequestRead,
			comm.Request{Index: 1, Action: comm.ActionGet, Kind: comm.KindTemperature, Port: Port6, Slot: comm.Slot2}},
		{"lamp on", gray.LightOn,
			comm.Request{Index: 2, Action: comm.ActionRun, Kind: comm.KindLight, Port: Port7, Data: []byte{1}}},
		{"lamp off", gray.LightOff,
			comm.Request{Index: 2, Action: comm.ActionRun, Kind: comm.KindLight, Port: Port7, Data: []byte{0}}},
		{"motion retriggerable", motion.SetModeRetriggerable,
			comm.Request{Index: 3, Action: comm.ActionRun, Kind: comm.KindPIRMotion, Port: Port5, Data: []byte{1}}},
		{"motion unrepeatable", motion.SetModeUnrepeatable,
			comm.Request{Index: 3, Action: comm.ActionRun, Kind: comm.KindPIRMotion, Port: Port5, Data: []byte{0}}},
		{"display", func() error { return display.SetValue(1.5) },
			comm.Request{Index: 4, Action: comm.ActionRun, Kind: comm.KindSevenSegment, Port: Port2, Data: []byte{0, 0, 0xc0, 0x3f}}},
		{"dc run", func() error { return dc.Run(-2) },
			comm.Request{Index: 5, Action: comm.ActionRun, Kind: comm.KindDCMotor, Port: Port1, Data: []byte{0xfe, 0xff}}},
		{"dc stop", dc.Stop,
			comm.Request{Index: 5, Action: comm.ActionRun, Kind: comm.KindDCMotor, Port: Port1, Data: []byte{0, 0}}},
		{"encoder run", func() error { return right.Run(128) },
			comm.Request{Index: 6, Action: comm.ActionRun, Kind: comm.KindEncoderMotor, Port: EncoderBoardPort, Slot: comm.Slot1,
				Data: []byte{0x80, 0, 0, 0, 0, 0}}},
		{"encoder move", func() error { return left.Move(-1, 90) },
			comm.Request{Index: 7, Action: comm.ActionRun, Kind: comm.KindEncoderMotor, Port: EncoderBoardPort, Slot: comm.Slot2,
				Data: []byte{0xff, 0xff, 0, 0, 0xb4, 0x42}}},
		{"encoder stop", left.Stop,
			comm.Request{Index: 7, Action: comm.ActionRun, Kind: comm.KindEncoderMotor, Port: EncoderBoardPort, Slot: comm.Slot2,
				Data: []byte{0, 0, 0, 0, 0, 0}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := len(sender.sent())
			require.NoError(t, tc.op())
			reqs := sender.sent()
			require.Len(t, reqs, before+1, "exactly one frame per call")
			require.Equal(t, &tc.expect, reqs[before])
		})
	}

	// writes don't touch stored readings.
	require.Equal(t, UnknownReading, gray.LatestReading())
	require.Equal(t, UnknownReading, motion.LatestReading())
}

func TestDeviceNoSender(t *testing.T) {
	b := NewBoard(nil)
	us := NewRangeSensor()
	b.MustAttach(Port1, us)
	require.Equal(t, ErrNoSender, us.RequestRead())

	var w Writable = NewDCMotor()
	require.Equal(t, ErrDetached, w.Write([]byte{0, 0}))
}

func TestWritableVariants(t *testing.T) {
	writable := func(d Device) bool {
		_, ok := d.(Writable)
		return ok
	}
	testCases := []struct {
		name   string
		dev    Device
		expect bool
	}{
		{"range", NewRangeSensor(), false},
		{"light", NewLightSensor(), false},
		{"line follower", NewLineFollower(), false},
		{"potentiometer", NewPotentiometer(), false},
		{"sound", NewSoundSensor(), false},
		{"temperature", NewTemperatureSensor(comm.Slot1), false},
		{"grayscale", NewGrayscaleSensor(), true},
		{"motion", NewMotionSensor(), true},
		{"display", NewDisplay(), true},
		{"dc motor", NewDCMotor(), true},
		{"encoder motor", NewEncoderMotor(comm.Slot1), true},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, writable(tc.dev), tc.name)
	}

	sender := &recordingSender{}
	b := NewBoard(sender)
	us := NewRangeSensor()
	b.MustAttach(Port3, us)
	var dev Device = us
	_, ok := dev.(Writable)
	require.False(t, ok)
	require.Empty(t, sender.sent(), "nothing sent to a read-only sensor")
}

func TestMotorInterface(t *testing.T) {
	var motors []Motor
	motors = append(motors, NewDCMotor(), NewEncoderMotor(comm.Slot1))
	require.Len(t, motors, 2)
	var readers []Readable
	readers = append(readers, NewRangeSensor(), NewGrayscaleSensor(), NewMotionSensor())
	for _, r := range readers {
		require.Equal(t, float64(Unknown), r.Latest())
	}
}
