package mqtt

import "fmt"

// Topic prefixes for the radiobridge MQTT namespace.
//
// All topics use the flat scheme: radiobridge/{category}/{identifier}
const (
	// TopicPrefix is the base for all radiobridge topics.
	TopicPrefix = "radiobridge"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "radiobridge/system"
)

// Topics provides builders for radiobridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	frameTopic := topics.Frames("paddock-link")
//	// Returns: "radiobridge/frames/paddock-link"
type Topics struct{}

// Frames returns the topic carrying radio frames for a link.
//
// The uplink gateway publishes frames received over the air to this
// topic; the downlink gateway subscribes to it and transmits the
// payloads over the air.
//
// Example: radiobridge/frames/paddock-link
func (Topics) Frames(linkID string) string {
	return fmt.Sprintf("%s/frames/%s", TopicPrefix, linkID)
}

// Health returns the topic for a gateway node's health reports.
//
// Example: radiobridge/health/gw-field-01
func (Topics) Health(nodeID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, nodeID)
}

// SystemStatus returns the topic for gateway online/offline status.
// Used for both graceful status messages and the LWT.
//
// Example: radiobridge/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllFrames returns a wildcard pattern matching frame topics for all links.
//
// Example: radiobridge/frames/+
func (Topics) AllFrames() string {
	return TopicPrefix + "/frames/+"
}

// AllHealth returns a wildcard pattern matching health topics for all nodes.
//
// Example: radiobridge/health/+
func (Topics) AllHealth() string {
	return TopicPrefix + "/health/+"
}
