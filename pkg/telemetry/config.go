package telemetry

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fermigas/Autonomy/pkg/env"
)

// Config defines where to publish telemetry.
type Config struct {
	Robot RobotRef
	Meta  Meta

	// MQTTBrokerURL specifies the MQTT broker to use, empty disables
	// telemetry. e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	Interval      time.Duration
}

var defaultConfig = Config{
	Robot:    RobotRef{Type: "orion"},
	Interval: 100 * time.Millisecond,
}

func init() {
	if val := os.Getenv("ORION_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	defaultConfig.Robot.ID = env.RobotID()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Robot.Type, "robot-type", defaultConfig.Robot.Type, "Robot type.")
	flag.StringVar(&defaultConfig.Robot.ID, "robot-id", defaultConfig.Robot.ID, "Robot ID.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty disables telemetry.")
	flag.DurationVar(&defaultConfig.Interval, "telemetry-interval", defaultConfig.Interval, "Minimum interval between two status messages.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetRobotMeta should be called in init with the description of the robot.
func SetRobotMeta(meta Meta) {
	defaultConfig.Meta = meta
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Enabled indicates a broker is configured.
func (c *Config) Enabled() bool {
	return c.MQTTBrokerURL != ""
}

// NewPublisher connects to the broker and announces the robot. The Queue
// must be closed by the caller.
func (c *Config) NewPublisher() (*Publisher, *Queue, error) {
	if !c.Robot.IsValid() {
		return nil, nil, fmt.Errorf("robot type and id must be specified")
	}
	q, err := NewQueueFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid MQTT broker URL: %v", err)
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, nil, err
	}
	pub := NewPublisher(q, c.Robot)
	pub.Interval = c.Interval
	if err := pub.Announce(c.Meta); err != nil {
		q.Close()
		return nil, nil, err
	}
	return pub, q, nil
}
