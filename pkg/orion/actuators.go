package orion

import (
	"github.com/fermigas/Autonomy/pkg/l0/comm"
)

// EncoderBoardPort is the i2c address of the encoder motor board. Encoder
// motors are always addressed through it and told apart by slot.
const EncoderBoardPort byte = 0x08

// GrayscaleSensor is a light sensor with a controllable lamp.
type GrayscaleSensor struct {
	*Sensor
}

// NewGrayscaleSensor creates a light and grayscale sensor.
func NewGrayscaleSensor() *GrayscaleSensor {
	return &GrayscaleSensor{Sensor: NewLightSensor()}
}

// Write implements Writable.
func (s *GrayscaleSensor) Write(data []byte) error { return s.write(data) }

// LightOn turns the lamp on.
func (s *GrayscaleSensor) LightOn() error { return s.Write([]byte{1}) }

// LightOff turns the lamp off.
func (s *GrayscaleSensor) LightOff() error { return s.Write([]byte{0}) }

// Motion sensor modes.
const (
	MotionModeUnrepeatable  byte = 0
	MotionModeRetriggerable byte = 1
)

// MotionSensor is a PIR motion sensor. Its value is 1 when motion is detected.
type MotionSensor struct {
	*Sensor
}

// NewMotionSensor creates a PIR motion sensor.
func NewMotionSensor() *MotionSensor {
	return &MotionSensor{Sensor: newSensor(comm.KindPIRMotion, 1, strictValue)}
}

// Write implements Writable.
func (s *MotionSensor) Write(data []byte) error { return s.write(data) }

// SetModeRetriggerable makes the sensor retrigger while motion continues.
func (s *MotionSensor) SetModeRetriggerable() error {
	return s.Write([]byte{MotionModeRetriggerable})
}

// SetModeUnrepeatable makes the sensor trigger once per motion.
func (s *MotionSensor) SetModeUnrepeatable() error {
	return s.Write([]byte{MotionModeUnrepeatable})
}

// Display is a seven segment display.
type Display struct {
	device
}

// NewDisplay creates a seven segment display.
func NewDisplay() *Display {
	return &Display{device: device{kind: comm.KindSevenSegment}}
}

// Write implements Writable.
func (d *Display) Write(data []byte) error { return d.write(data) }

// SetValue shows a number.
func (d *Display) SetValue(v float32) error {
	return d.Write(comm.AppendFloat32(nil, v))
}

// DCMotor is a plain DC motor.
type DCMotor struct {
	device
}

// NewDCMotor creates a DC motor.
func NewDCMotor() *DCMotor {
	return &DCMotor{device: device{kind: comm.KindDCMotor}}
}

// Write implements Writable.
func (m *DCMotor) Write(data []byte) error { return m.write(data) }

// Run implements Motor.
func (m *DCMotor) Run(speed int16) error {
	return m.Write(comm.AppendInt16(nil, speed))
}

// Stop implements Motor.
func (m *DCMotor) Stop() error {
	return m.Run(0)
}

// EncoderMotor is a motor driven through the encoder motor board.
type EncoderMotor struct {
	device
}

// NewEncoderMotor creates an encoder motor on a slot of the encoder board.
func NewEncoderMotor(slot comm.Slot) *EncoderMotor {
	return &EncoderMotor{device: device{
		kind:     comm.KindEncoderMotor,
		slot:     slot,
		wirePort: EncoderBoardPort,
	}}
}

// Write implements Writable.
func (m *EncoderMotor) Write(data []byte) error { return m.write(data) }

// Run implements Motor. The motor keeps running at speed until told otherwise.
func (m *EncoderMotor) Run(speed int16) error {
	return m.Move(speed, 0)
}

// Move runs the motor at speed for angle degrees. An angle of 0 runs forever.
func (m *EncoderMotor) Move(speed int16, angle float32) error {
	return m.Write(comm.AppendFloat32(comm.AppendInt16(nil, speed), angle))
}

// Stop implements Motor.
func (m *EncoderMotor) Stop() error {
	return m.Move(0, 0)
}
