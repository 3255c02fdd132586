package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/telemetry"
)

var (
	mqttURL   = "mqtt://localhost:1883/"
	robotType = "+"
)

func init() {
	if val := os.Getenv("ORION_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&robotType, "robot-type", robotType, "Robot type to watch, + for all.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	q, err := telemetry.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exit(err)
	}
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		glog.Exit(token.Error())
	}
	defer q.Close()

	q.Sub(robotType+"/+/"+telemetry.TopicMeta, func(topic string, payload []byte) {
		glog.Infof("%s: %s", strings.TrimSuffix(topic, "/"+telemetry.TopicMeta), string(payload))
	})
	q.SubStatus(robotType, func(robot telemetry.RobotRef, s *telemetry.Status) {
		glog.Infof("%s: %s", robot.Name(), s.String())
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}
