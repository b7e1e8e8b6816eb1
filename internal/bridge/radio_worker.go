package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/radiobridge/internal/radio"
)

// RadioWorkerConfig holds everything a RadioWorker needs.
type RadioWorkerConfig struct {
	// Device is the radio this worker exclusively owns.
	Device radio.Device

	// Channel joins the worker to its transport partner.
	Channel *ByteChannel

	// Role selects the loop variant: uplink drains the radio into the
	// channel, downlink drains the channel into the radio.
	Role Role

	// RFChannel and PayloadSize configure the transceiver at startup.
	RFChannel   uint8
	PayloadSize int

	// LocalAddress is programmed for uplink (receive) nodes,
	// PeerAddress for downlink (transmit) nodes.
	LocalAddress []byte
	PeerAddress  []byte

	// Tuning applies the optional data-rate and retransmit-delay
	// settings after addressing. Failures are logged, not fatal.
	Tuning          bool
	DataRate        radio.DataRate
	RetransmitDelay time.Duration

	// SendTimeout bounds waits for channel space on the uplink path.
	SendTimeout time.Duration

	// SendCompleteTimeout bounds the wait for the radio's transmit
	// acknowledgement on the downlink path.
	SendCompleteTimeout time.Duration

	// IdleDelay is taken each iteration the radio has no data ready.
	IdleDelay time.Duration

	Stats  *Stats
	Logger Logger
}

// RadioWorker is the long-lived task that owns the radio device.
type RadioWorker struct {
	cfg    RadioWorkerConfig
	logger Logger
}

// NewRadioWorker creates a worker. Run starts the loop.
func NewRadioWorker(cfg RadioWorkerConfig) *RadioWorker {
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	if cfg.Stats == nil {
		cfg.Stats = &Stats{}
	}
	return &RadioWorker{cfg: cfg, logger: logger}
}

// Run configures the radio and executes the role's loop until the
// channel closes, the context ends, or a fatal transfer error occurs.
//
// A radio that cannot be configured leaves the worker idle until the
// context ends rather than crash-looping: without the device there is
// nothing to retry, and the paired transport worker keeps running.
func (w *RadioWorker) Run(ctx context.Context) error {
	if err := w.setup(); err != nil {
		w.logger.Error("radio setup failed, worker idle", "error", err)
		<-ctx.Done()
		return err
	}

	w.applyTuning()

	switch w.cfg.Role {
	case RoleUplink:
		return w.drainRadio(ctx)
	case RoleDownlink:
		return w.drainChannel(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, w.cfg.Role)
	}
}

// setup configures the transceiver and programs the role's pipe address.
func (w *RadioWorker) setup() error {
	if err := w.cfg.Device.Configure(w.cfg.RFChannel, w.cfg.PayloadSize); err != nil {
		return fmt.Errorf("%w: configure: %w", ErrDeviceAbsent, err)
	}

	if w.cfg.Role == RoleUplink {
		if err := w.cfg.Device.SetLocalAddress(w.cfg.LocalAddress); err != nil {
			return fmt.Errorf("%w: local address: %w", ErrDeviceAbsent, err)
		}
	} else {
		if err := w.cfg.Device.SetPeerAddress(w.cfg.PeerAddress); err != nil {
			return fmt.Errorf("%w: peer address: %w", ErrDeviceAbsent, err)
		}
	}
	return nil
}

// applyTuning applies the optional RF tuning block.
func (w *RadioWorker) applyTuning() {
	if !w.cfg.Tuning {
		return
	}
	if err := w.cfg.Device.SetDataRate(w.cfg.DataRate); err != nil {
		w.logger.Warn("data rate not applied", "rate", w.cfg.DataRate.String(), "error", err)
	}
	if err := w.cfg.Device.SetRetransmitDelay(w.cfg.RetransmitDelay); err != nil {
		w.logger.Warn("retransmit delay not applied", "delay", w.cfg.RetransmitDelay, "error", err)
	}
}

// drainRadio moves received frames into the channel (uplink).
//
// Frames buffered in the radio before startup are stale and discarded.
// A short accept into the channel is fatal: the consumer would see a
// torn frame and every later frame would be misaligned.
func (w *RadioWorker) drainRadio(ctx context.Context) error {
	w.flushReceiveQueue()

	frame := make([]byte, w.cfg.PayloadSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		ready, err := w.cfg.Device.DataReady()
		if err != nil {
			w.logger.Warn("data-ready poll failed", "error", err)
			if !w.idle(ctx) {
				return nil
			}
			continue
		}
		if !ready {
			if !w.idle(ctx) {
				return nil
			}
			continue
		}

		if err := w.cfg.Device.Read(frame); err != nil {
			w.logger.Warn("frame read failed", "error", err)
			continue
		}
		w.cfg.Stats.FramesReceived.Add(1)

		n := effectiveLength(frame)
		if n == 0 {
			continue
		}

		accepted := w.cfg.Channel.Send(frame[:n], w.cfg.SendTimeout)
		if accepted < n {
			w.cfg.Stats.FramesDropped.Add(1)
			w.logger.Error("channel rejected frame",
				"offered", n,
				"accepted", accepted,
			)
			return fmt.Errorf("%w: offered %d accepted %d", ErrShortWrite, n, accepted)
		}
		w.cfg.Stats.BytesForwarded.Add(uint64(n))
	}
}

// drainChannel moves channel bytes out over the air (downlink).
//
// The frame buffer is zero-filled before each receive so a short run
// of bytes never carries stale trailing data from the previous frame.
// Transmit failures are logged and the loop continues with the next
// frame; there is no retransmission.
func (w *RadioWorker) drainChannel(ctx context.Context) error {
	frame := make([]byte, w.cfg.PayloadSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		clear(frame)
		n := w.cfg.Channel.Receive(frame, Forever)
		if n == 0 {
			// Closed channel: the bridge is shutting down.
			return nil
		}

		if err := w.cfg.Device.Write(frame); err != nil {
			w.cfg.Stats.SendFailures.Add(1)
			w.logger.Warn("radio write failed", "bytes", n, "error", err)
			continue
		}

		ok, err := w.cfg.Device.SendComplete(w.cfg.SendCompleteTimeout)
		if err != nil {
			w.cfg.Stats.SendFailures.Add(1)
			w.logger.Warn("send-complete wait failed", "error", err)
			continue
		}
		if !ok {
			w.cfg.Stats.SendFailures.Add(1)
			w.logger.Warn("frame not acknowledged", "bytes", n)
			continue
		}

		w.cfg.Stats.FramesTransmitted.Add(1)
		w.cfg.Stats.BytesForwarded.Add(uint64(n))
		w.logger.Debug("frame transmitted", "bytes", n)
	}
}

// flushReceiveQueue discards frames received before the worker started.
func (w *RadioWorker) flushReceiveQueue() {
	discard := make([]byte, w.cfg.PayloadSize)
	flushed := 0
	for {
		ready, err := w.cfg.Device.DataReady()
		if err != nil || !ready {
			break
		}
		if err := w.cfg.Device.Read(discard); err != nil {
			break
		}
		flushed++
	}
	if flushed > 0 {
		w.logger.Info("flushed stale frames from radio queue", "count", flushed)
	}
}

// idle waits out the per-iteration delay. Returns false when the
// context ended during the wait.
func (w *RadioWorker) idle(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.cfg.IdleDelay):
		return true
	}
}

// effectiveLength returns the frame's payload length: the offset of
// the first zero byte, or the full frame if none.
func effectiveLength(frame []byte) int {
	for i, b := range frame {
		if b == 0 {
			return i
		}
	}
	return len(frame)
}
