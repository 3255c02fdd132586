package comm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestBytes(t *testing.T) {
	testCases := []struct {
		name   string
		req    Request
		expect []byte
	}{
		{
			"get ultrasonic",
			Request{Index: 3, Action: ActionGet, Kind: KindUltrasonic, Port: 8},
			[]byte{0xff, 0x55, 0x04, 3, 0x01, 0x01, 8},
		},
		{
			"get temperature with slot",
			Request{Index: 1, Action: ActionGet, Kind: KindTemperature, Port: 6, Slot: Slot2},
			[]byte{0xff, 0x55, 0x05, 1, 0x01, 0x02, 6, 2},
		},
		{
			// encoder board on 0x08, motor 1 at speed 128 forever.
			"run encoder motor",
			Request{Index: 0, Action: ActionRun, Kind: KindEncoderMotor, Port: 0x08, Slot: Slot1,
				Data: AppendFloat32(AppendInt16(nil, 128), 0)},
			[]byte{0xff, 0x55, 0x0b, 0x00, 0x02, 0x0c, 0x08, 0x01, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			"run dc motor reverse",
			Request{Index: 2, Action: ActionRun, Kind: KindDCMotor, Port: 9, Data: AppendInt16(nil, -100)},
			[]byte{0xff, 0x55, 0x06, 2, 0x02, 0x0a, 9, 0x9c, 0xff},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.req.Validate())
			require.Equal(t, tc.expect, tc.req.Bytes())
			var buf bytes.Buffer
			n, err := tc.req.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	actions := []Action{ActionGet, ActionRun, ActionReset, ActionStart}
	for kind := range kindNames {
		for _, action := range actions {
			req := &Request{Index: 7, Action: action, Kind: kind, Port: 4}
			if kind.Slotted() {
				req.Slot = Slot2
			}
			if action == ActionRun {
				req.Data = AppendFloat32(AppendInt16(nil, -321), 90.5)
			}
			t.Run(kind.String()+"/"+action.String(), func(t *testing.T) {
				require.NoError(t, req.Validate())
				decoded, err := DecodeRequest(req.Bytes())
				require.NoError(t, err)
				require.Equal(t, req, decoded)
			})
		}
	}
}

func TestRequestValidate(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
	}{
		{"bad action", Request{Action: 3, Kind: KindUltrasonic}},
		{"bad kind", Request{Action: ActionGet, Kind: 0x55}},
		{"missing slot", Request{Action: ActionRun, Kind: KindEncoderMotor}},
		{"invalid slot", Request{Action: ActionRun, Kind: KindEncoderMotor, Slot: 3}},
		{"unexpected slot", Request{Action: ActionGet, Kind: KindUltrasonic, Slot: Slot1}},
		{"too large", Request{Action: ActionRun, Kind: KindDCMotor, Data: make([]byte, 252)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.req.Validate())
		})
	}
}

func TestDecodeReply(t *testing.T) {
	value, millis := AppendFloat32(nil, 42.5), AppendFloat32(nil, 1234)
	r := &Reply{Index: 5, Value: value, Millis: millis}
	frame := r.Bytes()
	require.Equal(t, []byte{0xff, 0x55, 11, 5, 4}, frame[:5])

	decoded, err := DecodeReply(frame)
	require.NoError(t, err)
	require.Equal(t, r, decoded)

	motion := &Reply{Index: 1, Value: []byte{1}, Millis: millis}
	decoded, err = DecodeReply(motion.Bytes())
	require.NoError(t, err)
	require.Equal(t, motion, decoded)
}

func TestDecodeMalformed(t *testing.T) {
	good := (&Reply{Index: 5, Value: AppendFloat32(nil, 1), Millis: AppendFloat32(nil, 2)}).Bytes()

	testCases := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"bad preamble", append([]byte{0xff, 0x56}, good[2:]...)},
		{"truncated", good[:len(good)-1]},
		{"extra bytes", append(append([]byte(nil), good...), 0)},
		{"short body", []byte{0xff, 0x55, 2, 1, 0}},
		{"value overruns", []byte{0xff, 0x55, 4, 1, 4, 0, 0}},
		{"segments disagree", []byte{0xff, 0x55, 5, 1, 1, 0, 4, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeReply(tc.frame)
			require.True(t, errors.Is(err, ErrMalformedFrame), "%v", err)
		})
	}

	_, err := DecodeRequest([]byte{0xff, 0x55, 3, 1, 1, 1})
	require.True(t, errors.Is(err, ErrMalformedFrame))
	_, err = DecodeRequest([]byte{0xff, 0x55, 4, 1, 2, byte(KindEncoderMotor), 8})
	require.True(t, errors.Is(err, ErrMalformedFrame))

	var mfe *MalformedFrameError
	_, err = DecodeReply(good[:len(good)-1])
	require.True(t, errors.As(err, &mfe))
	require.Equal(t, 11, mfe.Declared)
	require.Equal(t, 10, mfe.Actual)
}

func TestFieldDecoding(t *testing.T) {
	f, err := Float32("value", AppendFloat32(nil, 400))
	require.NoError(t, err)
	require.Equal(t, float32(400), f)

	_, err = Float32("value", []byte{1, 2, 3})
	var pse *PayloadSizeError
	require.True(t, errors.As(err, &pse))
	require.Equal(t, "value", pse.Field)
	require.Equal(t, 4, pse.Expected)
	require.Equal(t, 3, pse.Actual)
	require.True(t, errors.Is(err, ErrPayloadSizeMismatch))

	b, err := Byte("value", []byte{1})
	require.NoError(t, err)
	require.Equal(t, byte(1), b)
	_, err = Byte("value", []byte{1, 0})
	require.True(t, errors.Is(err, ErrPayloadSizeMismatch))

	require.Equal(t, []byte{0xff, 0x7f}, AppendInt16(nil, 32767))
	require.Equal(t, []byte{0x00, 0x80}, AppendInt16(nil, -32768))
}
