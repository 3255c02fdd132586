package telemetry

import (
	"strings"
)

// Topic suffixes
const (
	TopicStatus = "status"
	TopicMeta   = "meta"
)

// RobotRef identifies a robot on the broker.
type RobotRef struct {
	// Type is the robot type.
	Type string
	// ID is unique ID of the robot.
	ID string
}

// Name retrieves the name from ref.
func (r RobotRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates RobotRef is valid.
func (r RobotRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// Topic returns the topic of the robot with suffix.
func (r RobotRef) Topic(suffix string) string {
	return r.Name() + "/" + suffix
}

// ParseTopic splits a "<type>/<id>/<suffix>" topic.
func ParseTopic(topic string) (ref RobotRef, suffix string, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 {
		return ref, "", false
	}
	ref = RobotRef{Type: items[0], ID: items[1]}
	return ref, items[2], ref.IsValid()
}

// Meta describes a robot. It's published retained as JSON.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}
