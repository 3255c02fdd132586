package avoid

import (
	"fmt"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// Layout tells where the sensors and motors are attached.
type Layout struct {
	LeftPort   byte
	CenterPort byte
	RightPort  byte

	LeftMotorPort  byte
	LeftMotorSlot  comm.Slot
	RightMotorPort byte
	RightMotorSlot comm.Slot
}

// DefaultLayout is the wiring of the robot.
var DefaultLayout = Layout{
	LeftPort:       orion.Port8,
	CenterPort:     orion.Port3,
	RightPort:      orion.Port4,
	LeftMotorPort:  orion.PortM2,
	LeftMotorSlot:  comm.Slot2,
	RightMotorPort: orion.PortM1,
	RightMotorSlot: comm.Slot1,
}

// Robot holds the devices the avoidance controller works with.
type Robot struct {
	Left   *orion.Sensor
	Center *orion.Sensor
	Right  *orion.Sensor

	LeftMotor  *orion.EncoderMotor
	RightMotor *orion.EncoderMotor
}

// NewRobot creates the devices and attaches them to the board.
func NewRobot(b *orion.Board, l Layout) (*Robot, error) {
	r := &Robot{
		Left:       orion.NewRangeSensor(),
		Center:     orion.NewRangeSensor(),
		Right:      orion.NewRangeSensor(),
		LeftMotor:  orion.NewEncoderMotor(l.LeftMotorSlot),
		RightMotor: orion.NewEncoderMotor(l.RightMotorSlot),
	}
	attachments := []struct {
		name string
		port byte
		dev  orion.Device
	}{
		{"left sensor", l.LeftPort, r.Left},
		{"center sensor", l.CenterPort, r.Center},
		{"right sensor", l.RightPort, r.Right},
		{"right motor", l.RightMotorPort, r.RightMotor},
		{"left motor", l.LeftMotorPort, r.LeftMotor},
	}
	for _, a := range attachments {
		if err := b.Attach(a.port, a.dev); err != nil {
			return nil, fmt.Errorf("attach %s: %v", a.name, err)
		}
	}
	return r, nil
}

// Drive returns the drive of the robot.
func (r *Robot) Drive() *Drive {
	return &Drive{Left: r.LeftMotor, Right: r.RightMotor}
}

// Sensors returns left, center and right sensors in order.
func (r *Robot) Sensors() []orion.Readable {
	return []orion.Readable{r.Left, r.Center, r.Right}
}
