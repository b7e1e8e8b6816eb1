package bridge

import (
	"context"
	"fmt"
	"time"
)

// MessageHandler processes one inbound transport message.
type MessageHandler func(topic string, payload []byte) error

// Transport is the publish/subscribe contract the bridge consumes.
// The mqtt package's client is adapted to it in cmd/radiobridge;
// tests supply fakes.
type Transport interface {
	// Publish sends a payload to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic. The handler runs on
	// the transport's own delivery goroutine.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// IsConnected reports whether the transport is usable.
	IsConnected() bool
}

// TransportWorkerConfig holds everything a TransportWorker needs.
type TransportWorkerConfig struct {
	// Transport is the pub/sub client this worker exclusively owns.
	Transport Transport

	// Channel joins the worker to its radio partner.
	Channel *ByteChannel

	// Role selects the loop variant: uplink publishes frames drained
	// from the channel, downlink forwards subscribed messages into it.
	Role Role

	// FrameTopic carries radio frames for this node's link.
	FrameTopic string

	// QoS applies to the frame topic in both directions.
	QoS byte

	// PayloadSize bounds a single frame.
	PayloadSize int

	// SendTimeout bounds waits for channel space on the downlink path.
	// A message that cannot be accepted in time is dropped so the
	// transport's delivery callback is never blocked indefinitely.
	SendTimeout time.Duration

	Stats  *Stats
	Logger Logger
}

// TransportWorker is the long-lived task that owns the transport client.
type TransportWorker struct {
	cfg    TransportWorkerConfig
	logger Logger
}

// NewTransportWorker creates a worker. Run starts the loop.
func NewTransportWorker(cfg TransportWorkerConfig) *TransportWorker {
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	if cfg.Stats == nil {
		cfg.Stats = &Stats{}
	}
	return &TransportWorker{cfg: cfg, logger: logger}
}

// Run executes the role's loop until the channel closes or the
// context ends.
func (w *TransportWorker) Run(ctx context.Context) error {
	switch w.cfg.Role {
	case RoleUplink:
		return w.publishFromChannel(ctx)
	case RoleDownlink:
		return w.forwardToChannel(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, w.cfg.Role)
	}
}

// publishFromChannel drains the channel and publishes each run of
// bytes as one frame message (uplink).
func (w *TransportWorker) publishFromChannel(ctx context.Context) error {
	buf := make([]byte, w.cfg.PayloadSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n := w.cfg.Channel.Receive(buf, Forever)
		if n == 0 {
			// Closed channel: the bridge is shutting down.
			return nil
		}

		// The publish may be queued by the client; hand it a copy so
		// the next receive cannot overwrite the payload underneath it.
		payload := make([]byte, n)
		copy(payload, buf[:n])

		if err := w.cfg.Transport.Publish(w.cfg.FrameTopic, payload, w.cfg.QoS, false); err != nil {
			w.cfg.Stats.FramesDropped.Add(1)
			w.logger.Warn("frame publish failed", "topic", w.cfg.FrameTopic, "bytes", n, "error", err)
			continue
		}

		w.cfg.Stats.FramesPublished.Add(1)
		w.logger.Debug("frame published", "topic", w.cfg.FrameTopic, "bytes", n)
	}
}

// forwardToChannel subscribes to the frame topic and pushes each
// message payload into the channel (downlink), then blocks until the
// context ends. A full channel drops the message rather than stall the
// transport's delivery callback.
func (w *TransportWorker) forwardToChannel(ctx context.Context) error {
	err := w.cfg.Transport.Subscribe(w.cfg.FrameTopic, w.cfg.QoS, w.handleInbound)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", w.cfg.FrameTopic, err)
	}

	w.logger.Info("forwarding inbound frames", "topic", w.cfg.FrameTopic)
	<-ctx.Done()
	return nil
}

// handleInbound is the subscription callback for the downlink path.
func (w *TransportWorker) handleInbound(topic string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if len(payload) > w.cfg.PayloadSize {
		w.cfg.Stats.FramesDropped.Add(1)
		w.logger.Warn("oversized frame dropped", "topic", topic, "bytes", len(payload))
		return nil
	}

	accepted := w.cfg.Channel.Send(payload, w.cfg.SendTimeout)
	if accepted < len(payload) {
		w.cfg.Stats.FramesDropped.Add(1)
		w.logger.Warn("inbound frame dropped, channel full",
			"topic", topic,
			"offered", len(payload),
			"accepted", accepted,
		)
		return nil
	}

	w.cfg.Stats.FramesForwarded.Add(1)
	return nil
}
