package bridge

import "fmt"

// Role selects which direction a node bridges.
type Role string

const (
	// RoleUplink receives frames over the air and publishes them to MQTT.
	RoleUplink Role = "uplink"

	// RoleDownlink subscribes to MQTT frames and transmits them over the air.
	RoleDownlink Role = "downlink"
)

// ParseRole maps a configuration string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "uplink":
		return RoleUplink, nil
	case "downlink":
		return RoleDownlink, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}
