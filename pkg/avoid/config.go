package avoid

import (
	"flag"
	"fmt"
	"math"
	"time"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/orion"
)

// Config tunes the avoidance behavior.
type Config struct {
	// Threshold in centimeters below which a reading is an obstacle.
	Threshold float64
	Speed     int

	SamplingPeriod time.Duration
	PrimeInterval  time.Duration
	Settle         time.Duration
	Retreat        time.Duration
	TurnHold       time.Duration
	StopDelay      time.Duration

	Layout Layout
}

var defaultConfig = Config{
	Threshold:      30,
	Speed:          100,
	SamplingPeriod: 5 * time.Millisecond,
	PrimeInterval:  100 * time.Millisecond,
	Settle:         500 * time.Millisecond,
	Retreat:        300 * time.Millisecond,
	TurnHold:       300 * time.Millisecond,
	StopDelay:      100 * time.Millisecond,
	Layout:         DefaultLayout,
}

type portFlag struct {
	port *byte
}

func (f portFlag) String() string {
	if f.port == nil {
		return ""
	}
	return fmt.Sprintf("%d", *f.port)
}

func (f portFlag) Set(s string) error {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return err
	}
	if n < int(orion.Port1) || n > int(orion.PortM2) {
		return fmt.Errorf("invalid port %d", n)
	}
	*f.port = byte(n)
	return nil
}

type slotFlag struct {
	slot *comm.Slot
}

func (f slotFlag) String() string {
	if f.slot == nil {
		return ""
	}
	return fmt.Sprintf("%d", *f.slot)
}

func (f slotFlag) Set(s string) error {
	switch s {
	case "1":
		*f.slot = comm.Slot1
	case "2":
		*f.slot = comm.Slot2
	default:
		return fmt.Errorf("invalid slot %q", s)
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.Float64Var(&c.Threshold, "threshold", c.Threshold, "Obstacle distance in centimeters.")
	flag.IntVar(&c.Speed, "speed", c.Speed, "Motor speed.")
	flag.DurationVar(&c.SamplingPeriod, "sampling", c.SamplingPeriod, "Delay between two samples while cruising.")
	flag.DurationVar(&c.PrimeInterval, "prime-interval", c.PrimeInterval, "Delay between read requests while priming.")
	flag.DurationVar(&c.Settle, "settle", c.Settle, "Pause after stopping before retreating.")
	flag.DurationVar(&c.Retreat, "retreat", c.Retreat, "How long to drive backward.")
	flag.DurationVar(&c.TurnHold, "turn", c.TurnHold, "How long to turn before sampling again.")
	flag.DurationVar(&c.StopDelay, "stop-delay", c.StopDelay, "Pause after stopping the motors.")
	flag.Var(portFlag{&c.Layout.LeftPort}, "left-port", "Port of the left ultrasonic sensor.")
	flag.Var(portFlag{&c.Layout.CenterPort}, "center-port", "Port of the center ultrasonic sensor.")
	flag.Var(portFlag{&c.Layout.RightPort}, "right-port", "Port of the right ultrasonic sensor.")
	flag.Var(portFlag{&c.Layout.LeftMotorPort}, "left-motor-port", "Port of the left encoder motor.")
	flag.Var(slotFlag{&c.Layout.LeftMotorSlot}, "left-motor-slot", "Slot of the left encoder motor.")
	flag.Var(portFlag{&c.Layout.RightMotorPort}, "right-motor-port", "Port of the right encoder motor.")
	flag.Var(slotFlag{&c.Layout.RightMotorSlot}, "right-motor-slot", "Slot of the right encoder motor.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Speed < 0 || c.Speed > math.MaxInt16 {
		return fmt.Errorf("speed %d out of range", c.Speed)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if c.Layout.LeftMotorSlot == c.Layout.RightMotorSlot {
		return fmt.Errorf("both motors use slot %d", c.Layout.LeftMotorSlot)
	}
	return nil
}
