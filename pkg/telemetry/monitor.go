package telemetry

import (
	"github.com/golang/glog"
)

// StatusHandler is called with decoded statuses.
type StatusHandler func(robot RobotRef, s *Status)

// HandleStatus adapts a StatusHandler to a topic Handler. Payloads which
// aren't statuses are logged and dropped.
func HandleStatus(h StatusHandler) Handler {
	return func(topic string, payload []byte) {
		ref, suffix, ok := ParseTopic(topic)
		if !ok || suffix != TopicStatus {
			glog.V(2).Infof("%s: not a status topic", topic)
			return
		}
		s, err := DecodeStatus(payload)
		if err != nil {
			glog.Warningf("%s: bad status: %v", topic, err)
			return
		}
		h(ref, s)
	}
}

// SubStatus subscribes statuses from robots of robotType, "+" for all.
func (q *Queue) SubStatus(robotType string, h StatusHandler) *Subscription {
	return q.Sub(robotType+"/+/"+TopicStatus, HandleStatus(h))
}
