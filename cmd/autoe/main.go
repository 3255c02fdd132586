package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/avoid"
	"github.com/fermigas/Autonomy/pkg/env"
	"github.com/fermigas/Autonomy/pkg/framework"
	"github.com/fermigas/Autonomy/pkg/orion"
	"github.com/fermigas/Autonomy/pkg/sim"
	"github.com/fermigas/Autonomy/pkg/telemetry"
)

func init() {
	telemetry.SetRobotMeta(telemetry.Meta{Description: "Ultrasonic obstacle avoidance"})
	orion.SetupFlags()
	avoid.SetupFlags()
	telemetry.SetupFlags()
	sim.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()
	if err := run(); err != nil {
		glog.Errorf("autoe: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	conf := avoid.NewConfig()
	if err := conf.Validate(); err != nil {
		return err
	}
	boardConf := orion.NewConfig()
	board, fifo, err := env.OpenBoard(boardConf, sim.NewConfig())
	if err != nil {
		return err
	}
	robot, err := avoid.NewRobot(board, conf.Layout)
	if err != nil {
		fifo.Close()
		return err
	}
	ctl := avoid.NewController(conf, robot, boardConf.NewPoller(), fifo)
	ctl.Status = os.Stdout

	if telemetryConf := telemetry.NewConfig(); telemetryConf.Enabled() {
		pub, q, err := telemetryConf.NewPublisher()
		if err != nil {
			fifo.Close()
			return err
		}
		defer q.Close()
		ctl.Reporter = pub
		glog.Infof("publishing status to %s", pub.Robot.Topic(telemetry.TopicStatus))
	}

	return framework.NewRunner().HandleSignals().Go(fifo, ctl).Wait()
}
