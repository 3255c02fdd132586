package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const (
	appID             = "orion-autonomy"
	robotIDEnvVarName = "ORION_ROBOT_ID"
	robotIDLen        = 12
)

var (
	machineID   = machineid.ID
	protectedID = machineid.ProtectedID
	hostname    = os.Hostname
)

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineID()
}

// RobotID returns an ID for this robot. ORION_ROBOT_ID wins, then an ID
// derived from the machine ID, then the hostname.
func RobotID() string {
	if id := os.Getenv(robotIDEnvVarName); id != "" {
		return id
	}
	if id, err := protectedID(appID); err == nil && id != "" {
		if len(id) > robotIDLen {
			id = id[:robotIDLen]
		}
		return id
	} else if err != nil {
		glog.V(1).Infof("machine id unavailable: %v", err)
	}
	if name, err := hostname(); err == nil && name != "" {
		return name
	}
	return "unknown"
}
