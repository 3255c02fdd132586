package sim

import (
	"flag"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// Config defines the simulated robot.
type Config struct {
	// Enabled replaces the serial port with a simulated board.
	Enabled bool
	// ArenaSize is the side of the square room in centimeters.
	ArenaSize float64
	// SpeedScale converts motor speed to wheel speed in cm/s.
	SpeedScale float64
	// WheelBase is the distance between the wheels in centimeters.
	WheelBase float64

	LeftSlot  comm.Slot
	RightSlot comm.Slot
	// Mounts are the headings of the range sensors relative to the robot.
	Mounts map[byte]Angle
}

var defaultConfig = Config{
	ArenaSize:  300,
	SpeedScale: 0.2,
	WheelBase:  15,
	LeftSlot:   comm.Slot2,
	RightSlot:  comm.Slot1,
	Mounts: map[byte]Angle{
		orion.Port8: AngleFromDegrees(45),
		orion.Port3: 0,
		orion.Port4: AngleFromDegrees(-45),
	},
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Enabled, "sim", defaultConfig.Enabled, "Drive a simulated board instead of the serial port.")
	flag.Float64Var(&defaultConfig.ArenaSize, "sim-arena", defaultConfig.ArenaSize, "Size (cm) of the simulated square room.")
	flag.Float64Var(&defaultConfig.SpeedScale, "sim-speed-scale", defaultConfig.SpeedScale, "Simulated wheel speed (cm/s) per motor speed unit.")
	flag.Float64Var(&defaultConfig.WheelBase, "sim-wheel-base", defaultConfig.WheelBase, "Distance (cm) between the simulated wheels.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewOrion creates a simulated board with the robot in the middle of an
// empty arena.
func (c *Config) NewOrion() *Orion {
	return NewOrion(NewArena(c.ArenaSize), *c, Pose2D{
		Pos2D: Pos2D{X: c.ArenaSize / 2, Y: c.ArenaSize / 2},
	})
}
