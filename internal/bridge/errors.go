package bridge

import "errors"

// Sentinel errors for bridge operations.
var (
	// ErrShortWrite indicates a channel accepted fewer bytes than offered.
	// Partial frames cannot be reassembled, so the owning worker stops.
	ErrShortWrite = errors.New("bridge: short write to channel")

	// ErrDeviceAbsent indicates the radio could not be configured at startup.
	ErrDeviceAbsent = errors.New("bridge: radio device absent")

	// ErrInvalidRole indicates an unrecognised node role.
	ErrInvalidRole = errors.New("bridge: invalid role")
)
