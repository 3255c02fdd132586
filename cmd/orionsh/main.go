package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/avoid"
	"github.com/fermigas/Autonomy/pkg/cli/sh"
	"github.com/fermigas/Autonomy/pkg/env"
	"github.com/fermigas/Autonomy/pkg/orion"
	"github.com/fermigas/Autonomy/pkg/sim"

	_ "github.com/fermigas/Autonomy/pkg/cli/cmds/drive"
)

var displayPort uint

func init() {
	orion.SetupFlags()
	avoid.SetupFlags()
	sim.SetupFlags()
	sh.SetupFlags()
	flag.UintVar(&displayPort, "display-port", displayPort, "Port of the seven segment display, 0 for none.")
}

func main() {
	flag.Parse()
	defer glog.Flush()
	if err := run(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(args []string) error {
	if displayPort > uint(orion.PortM2) {
		return fmt.Errorf("invalid display port %d", displayPort)
	}
	boardConf := orion.NewConfig()
	board, fifo, err := env.OpenBoard(boardConf, sim.NewConfig())
	if err != nil {
		return err
	}
	session, err := sh.NewSession(board, fifo, avoid.NewConfig().Layout, byte(displayPort))
	if err != nil {
		fifo.Close()
		return err
	}
	defer session.Close()
	session.Poller = boardConf.NewPoller()
	session.Speed = int16(avoid.NewConfig().Speed)
	return sh.New(session).Run(args...)
}
