package orion

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
	"github.com/fermigas/Autonomy/pkg/l0/serial"
)

// Config defines how to reach the board and how to poll it.
type Config struct {
	SerialPath  string
	BaudRate    int
	ReadTimeout time.Duration

	PollInterval   time.Duration
	PollRetryEvery int
	PollTimeout    time.Duration
}

var defaultConfig = Config{
	SerialPath:     "/dev/ttyUSB0",
	BaudRate:       serial.DefaultBaudRate,
	PollInterval:   DefaultPollInterval,
	PollRetryEvery: DefaultPollRetryEvery,
}

func init() {
	if val := os.Getenv("ORION_SERIAL"); val != "" {
		defaultConfig.SerialPath = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.SerialPath, "serial", defaultConfig.SerialPath, "Serial port of the Orion board.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Serial read timeout, 0 blocks.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll-interval", defaultConfig.PollInterval, "Delay between two freshness checks.")
	flag.IntVar(&defaultConfig.PollRetryEvery, "poll-retry", defaultConfig.PollRetryEvery, "Re-send a read request every so many checks.")
	flag.DurationVar(&defaultConfig.PollTimeout, "poll-timeout", defaultConfig.PollTimeout, "Give up waiting for a fresh reading after this long, 0 waits forever.")
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

// NewPoller creates a Poller from the config.
func (c *Config) NewPoller() *Poller {
	return &Poller{
		Interval:   c.PollInterval,
		RetryEvery: c.PollRetryEvery,
		Timeout:    c.PollTimeout,
	}
}

// Open opens the serial port and creates a board wired to it. The returned
// FIFO must be run to receive replies and closed to release the port.
func (c *Config) Open() (*Board, *comm.FIFO, error) {
	port, err := serial.Open(c.SerialPath, serial.PortOptions{
		BaudRate:    c.BaudRate,
		ReadTimeout: c.ReadTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	board, fifo := Connect(port)
	return board, fifo, nil
}

// Connect creates a board talking over rw.
func Connect(rw io.ReadWriter) (*Board, *comm.FIFO) {
	fifo := comm.NewFIFO(rw)
	board := NewBoard(fifo)
	fifo.Handler = board
	return board, fifo
}
