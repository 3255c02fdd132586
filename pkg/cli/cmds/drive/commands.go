package drive

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/fermigas/Autonomy/pkg/cli/sh"
)

func parseSpeed(args []string, def int16) (int16, error) {
	if len(args) == 0 {
		return def, nil
	}
	val, err := strconv.ParseInt(args[0], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("Invalid SPEED: %v", err)
	}
	return int16(val), nil
}

func moveCmd(direction string, aliases ...string) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    direction,
		Aliases: aliases,
		Help:    "[SPEED]",
		Func: func(c *ishell.Context) {
			s := sh.SessionFrom(c)
			speed, err := parseSpeed(c.Args, s.Speed)
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.Move(direction, speed); err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]interface{}{"move": direction, "speed": speed}, "OK")
		},
	}
}

var (
	// SenseCmd polls the range sensors.
	SenseCmd = ishell.Cmd{
		Name:    "sense",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			d, err := sh.SessionFrom(c).Sense(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, d, sh.FormatDistances(d))
		},
	}

	// StopCmd stops both motors.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"x"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := sh.SessionFrom(c).Move("stop", 0); err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]string{"move": "stop"}, "OK")
		},
	}

	// DisplayCmd shows a value on the seven segment display.
	DisplayCmd = ishell.Cmd{
		Name:    "display",
		Aliases: []string{"d"},
		Help:    "VALUE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("VALUE required"))
				return
			}
			val, err := strconv.ParseFloat(c.Args[0], 32)
			if err != nil {
				c.Err(fmt.Errorf("Invalid VALUE: %v", err))
				return
			}
			if err := sh.SessionFrom(c).ShowValue(float32(val)); err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, map[string]float64{"display": val}, "OK")
		},
	}

	// DevicesCmd lists attached devices.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"ls"},
		Help:    "",
		Func: func(c *ishell.Context) {
			for _, line := range sh.SessionFrom(c).Devices() {
				c.Println(line)
			}
		},
	}

	// StatsCmd prints transport counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: func(c *ishell.Context) {
			c.Println(sh.SessionFrom(c).Stats())
		},
	}
)

// Cmds are the commands registered to the shell.
var Cmds = []*ishell.Cmd{
	&SenseCmd,
	moveCmd("forward", "f"),
	moveCmd("backward", "b"),
	moveCmd("left", "l"),
	moveCmd("right", "r"),
	&StopCmd,
	&DisplayCmd,
	&DevicesCmd,
	&StatsCmd,
}

func init() {
	sh.AddCmds(Cmds...)
}
