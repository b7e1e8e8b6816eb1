package radio

import (
	"errors"
	"fmt"
	"time"
)

// AddressLength is the pipe address width used by nRF24-class radios.
const AddressLength = 5

// Radio limits imposed by the nRF24 register layout.
const (
	// MaxChannel is the highest RF channel (2400 + n MHz).
	MaxChannel = 125

	// MaxPayloadSize is the largest over-the-air frame.
	MaxPayloadSize = 32
)

// Sentinel errors for radio operations.
var (
	// ErrCommandFailed indicates the adapter rejected a command.
	ErrCommandFailed = errors.New("radio: command failed")

	// ErrProtocol indicates a malformed response from the adapter.
	ErrProtocol = errors.New("radio: protocol error")

	// ErrInvalidAddress indicates a pipe address of the wrong length.
	ErrInvalidAddress = errors.New("radio: address must be 5 bytes")

	// ErrInvalidDataRate indicates an unrecognised data rate name.
	ErrInvalidDataRate = errors.New("radio: invalid data rate")
)

// DataRate selects the over-the-air bit rate.
type DataRate uint8

const (
	// DataRate1Mbps is the default rate.
	DataRate1Mbps DataRate = iota

	// DataRate2Mbps doubles throughput at reduced range.
	DataRate2Mbps

	// DataRate250Kbps maximises range and receiver sensitivity.
	DataRate250Kbps
)

// String returns the configuration name of the rate.
func (r DataRate) String() string {
	switch r {
	case DataRate1Mbps:
		return "1mbps"
	case DataRate2Mbps:
		return "2mbps"
	case DataRate250Kbps:
		return "250kbps"
	default:
		return "unknown"
	}
}

// ParseDataRate maps a configuration string to a DataRate.
//
// Accepted values: "1mbps", "2mbps", "250kbps".
func ParseDataRate(s string) (DataRate, error) {
	switch s {
	case "1mbps":
		return DataRate1Mbps, nil
	case "2mbps":
		return DataRate2Mbps, nil
	case "250kbps":
		return DataRate250Kbps, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDataRate, s)
	}
}

// Device is the contract the bridge workers program against.
//
// SerialDevice is the production implementation; tests supply fakes.
// Implementations need not be safe for concurrent use: each gateway
// role touches the device from a single worker goroutine.
type Device interface {
	// Configure sets the RF channel and fixed payload size.
	Configure(channel uint8, payloadSize int) error

	// SetLocalAddress programs the receive pipe address.
	SetLocalAddress(addr []byte) error

	// SetPeerAddress programs the transmit pipe address.
	SetPeerAddress(addr []byte) error

	// SetDataRate selects the over-the-air bit rate.
	SetDataRate(rate DataRate) error

	// SetRetransmitDelay sets the auto-retransmit delay.
	SetRetransmitDelay(d time.Duration) error

	// DataReady reports whether a received frame is waiting.
	DataReady() (bool, error)

	// Read fills buf with the next received frame.
	// buf must be payload-size bytes.
	Read(buf []byte) error

	// Write queues a frame for transmission.
	// frame must be payload-size bytes.
	Write(frame []byte) error

	// SendComplete waits up to timeout for the queued frame to be
	// transmitted and acknowledged. Returns false if the radio
	// reported a failed or unacknowledged send.
	SendComplete(timeout time.Duration) (bool, error)

	// Close releases the device.
	Close() error
}
