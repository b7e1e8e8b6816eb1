package radio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Wire framing for the serial-attached radio adapter.
//
// Every command and response travels as:
//
//	0x94 0xC3 <len_hi> <len_lo> <body...>
//
// A command body is an opcode followed by its arguments. A response
// body is a status byte (0x00 = ok) followed by result data. The magic
// prefix lets the reader resynchronise after line noise.
const (
	frameMagic1 = 0x94
	frameMagic2 = 0xC3

	// maxFrameLen bounds response bodies; anything larger is noise.
	maxFrameLen = 512

	statusOK = 0x00
)

// Adapter command opcodes.
const (
	cmdConfigure          = 0x01
	cmdSetLocalAddress    = 0x02
	cmdSetPeerAddress     = 0x03
	cmdSetDataRate        = 0x04
	cmdSetRetransmitDelay = 0x05
	cmdDataReady          = 0x06
	cmdRead               = 0x07
	cmdWrite              = 0x08
	cmdSendComplete       = 0x09
)

// SerialDevice drives an nRF24-class radio behind a serial adapter.
//
// Each operation is one command/response round trip. A mutex
// serialises round trips so interleaved commands cannot corrupt
// the stream.
type SerialDevice struct {
	stream io.ReadWriteCloser
	mu     sync.Mutex
}

// Open connects to the radio adapter on the named serial port.
//
// Parameters:
//   - port: device path, e.g. "/dev/ttyUSB0"
//   - baud: line speed, e.g. 115200
//
// Returns:
//   - *SerialDevice: ready for configuration
//   - error: if the port cannot be opened
func Open(port string, baud int) (*SerialDevice, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", port, err)
	}

	return NewSerialDevice(p), nil
}

// NewSerialDevice wraps an already-open stream.
// Exists primarily so tests can substitute an in-memory stream.
func NewSerialDevice(stream io.ReadWriteCloser) *SerialDevice {
	return &SerialDevice{stream: stream}
}

// Configure sets the RF channel and fixed payload size.
func (d *SerialDevice) Configure(channel uint8, payloadSize int) error {
	if channel > MaxChannel {
		return fmt.Errorf("radio: channel %d out of range 0-%d", channel, MaxChannel)
	}
	if payloadSize < 1 || payloadSize > MaxPayloadSize {
		return fmt.Errorf("radio: payload size %d out of range 1-%d", payloadSize, MaxPayloadSize)
	}

	_, err := d.roundTrip(cmdConfigure, []byte{channel, byte(payloadSize)})
	return err
}

// SetLocalAddress programs the receive pipe address.
func (d *SerialDevice) SetLocalAddress(addr []byte) error {
	if len(addr) != AddressLength {
		return ErrInvalidAddress
	}
	_, err := d.roundTrip(cmdSetLocalAddress, addr)
	return err
}

// SetPeerAddress programs the transmit pipe address.
func (d *SerialDevice) SetPeerAddress(addr []byte) error {
	if len(addr) != AddressLength {
		return ErrInvalidAddress
	}
	_, err := d.roundTrip(cmdSetPeerAddress, addr)
	return err
}

// SetDataRate selects the over-the-air bit rate.
func (d *SerialDevice) SetDataRate(rate DataRate) error {
	if rate > DataRate250Kbps {
		return fmt.Errorf("%w: %d", ErrInvalidDataRate, rate)
	}
	_, err := d.roundTrip(cmdSetDataRate, []byte{byte(rate)})
	return err
}

// SetRetransmitDelay sets the auto-retransmit delay.
// The hardware supports 250 to 4000 microseconds.
func (d *SerialDevice) SetRetransmitDelay(delay time.Duration) error {
	micros := delay.Microseconds()
	if micros < 250 || micros > 4000 {
		return fmt.Errorf("radio: retransmit delay %v out of range 250µs-4000µs", delay)
	}

	args := make([]byte, 2)
	binary.BigEndian.PutUint16(args, uint16(micros))
	_, err := d.roundTrip(cmdSetRetransmitDelay, args)
	return err
}

// DataReady reports whether a received frame is waiting in the RX queue.
func (d *SerialDevice) DataReady() (bool, error) {
	data, err := d.roundTrip(cmdDataReady, nil)
	if err != nil {
		return false, err
	}
	if len(data) != 1 {
		return false, fmt.Errorf("%w: data-ready response length %d", ErrProtocol, len(data))
	}
	return data[0] == 1, nil
}

// Read fills buf with the next received frame.
func (d *SerialDevice) Read(buf []byte) error {
	data, err := d.roundTrip(cmdRead, nil)
	if err != nil {
		return err
	}
	if len(data) != len(buf) {
		return fmt.Errorf("%w: read returned %d bytes, want %d", ErrProtocol, len(data), len(buf))
	}
	copy(buf, data)
	return nil
}

// Write queues a frame for transmission.
func (d *SerialDevice) Write(frame []byte) error {
	if len(frame) > MaxPayloadSize {
		return fmt.Errorf("radio: frame size %d exceeds maximum %d", len(frame), MaxPayloadSize)
	}
	_, err := d.roundTrip(cmdWrite, frame)
	return err
}

// SendComplete waits up to timeout for the queued frame to be
// transmitted and acknowledged by the peer.
func (d *SerialDevice) SendComplete(timeout time.Duration) (bool, error) {
	millis := timeout.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	if millis > 0xFFFF {
		millis = 0xFFFF
	}

	args := make([]byte, 2)
	binary.BigEndian.PutUint16(args, uint16(millis))

	data, err := d.roundTrip(cmdSendComplete, args)
	if err != nil {
		return false, err
	}
	if len(data) != 1 {
		return false, fmt.Errorf("%w: send-complete response length %d", ErrProtocol, len(data))
	}
	return data[0] == 1, nil
}

// Close releases the serial port.
func (d *SerialDevice) Close() error {
	return d.stream.Close()
}

// roundTrip sends one command and reads its response body.
// Returns the response data after the status byte.
func (d *SerialDevice) roundTrip(op byte, args []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeFrame(op, args); err != nil {
		return nil, err
	}

	body, err := d.readFrame()
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrProtocol)
	}
	if body[0] != statusOK {
		return nil, fmt.Errorf("%w: opcode 0x%02x status 0x%02x", ErrCommandFailed, op, body[0])
	}

	return body[1:], nil
}

// writeFrame sends a framed command.
func (d *SerialDevice) writeFrame(op byte, args []byte) error {
	body := make([]byte, 0, 1+len(args))
	body = append(body, op)
	body = append(body, args...)

	header := []byte{frameMagic1, frameMagic2, 0, 0}
	binary.BigEndian.PutUint16(header[2:4], uint16(len(body)))

	if _, err := d.stream.Write(header); err != nil {
		return fmt.Errorf("radio: writing frame header: %w", err)
	}
	if _, err := d.stream.Write(body); err != nil {
		return fmt.Errorf("radio: writing frame body: %w", err)
	}
	return nil
}

// readFrame hunts for the magic prefix and reads one response body.
// Noise between frames is skipped byte by byte.
func (d *SerialDevice) readFrame() ([]byte, error) {
	header := make([]byte, 4)

	for {
		if _, err := io.ReadFull(d.stream, header[:1]); err != nil {
			return nil, fmt.Errorf("radio: reading frame: %w", err)
		}
		if header[0] != frameMagic1 {
			continue
		}

		if _, err := io.ReadFull(d.stream, header[1:2]); err != nil {
			return nil, fmt.Errorf("radio: reading frame: %w", err)
		}
		if header[1] != frameMagic2 {
			continue
		}

		if _, err := io.ReadFull(d.stream, header[2:]); err != nil {
			return nil, fmt.Errorf("radio: reading frame: %w", err)
		}

		bodyLen := int(binary.BigEndian.Uint16(header[2:4]))
		if bodyLen > maxFrameLen {
			continue
		}

		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(d.stream, body); err != nil {
			return nil, fmt.Errorf("radio: reading frame: %w", err)
		}
		return body, nil
	}
}
