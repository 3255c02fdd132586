package env

import (
	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/orion"
	"github.com/fermigas/Autonomy/pkg/sim"
)

// OpenBoard opens the board on the serial port, or a simulated one when
// simulation is enabled.
func OpenBoard(conf *orion.Config, simConf *sim.Config) (*orion.Board, *comm.FIFO, error) {
	if simConf != nil && simConf.Enabled {
		glog.Infof("using simulated board in a %.0fcm arena", simConf.ArenaSize)
		board, fifo := orion.Connect(simConf.NewOrion())
		return board, fifo, nil
	}
	glog.Infof("opening %s at %d baud", conf.SerialPath, conf.BaudRate)
	return conf.Open()
}
