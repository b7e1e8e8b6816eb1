package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/radiobridge/internal/infrastructure/config"
	"github.com/nerrad567/radiobridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/radiobridge/internal/radio"
)

// TelemetryWriter receives frame counters for time-series storage.
// Writes are fire-and-forget; a nil writer disables telemetry.
type TelemetryWriter interface {
	WriteFrameCounters(nodeID, role string, counters map[string]uint64)
}

// Options holds everything needed to construct a Bridge.
type Options struct {
	Config    *config.Config
	Device    radio.Device
	Transport Transport

	// Telemetry is optional; nil disables counter export.
	Telemetry TelemetryWriter

	Logger Logger
}

// Bridge owns the worker pair, the channels joining them, and the
// health reporter. One Bridge runs per process.
type Bridge struct {
	role   Role
	nodeID string
	logger Logger

	// Both directions get a channel; the configured role's worker
	// pair shares exactly one of them.
	radioToNet *ByteChannel
	netToRadio *ByteChannel

	stats *Stats

	radioWorker     *RadioWorker
	transportWorker *TransportWorker
	health          *HealthReporter
	telemetry       TelemetryWriter
	telemetryEvery  time.Duration

	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// New wires a Bridge from configuration and the already-open device
// and transport handles.
func New(opts Options) (*Bridge, error) {
	if opts.Config == nil {
		return nil, errors.New("bridge: config is required")
	}
	if opts.Device == nil {
		return nil, errors.New("bridge: radio device is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("bridge: transport is required")
	}

	cfg := opts.Config
	role, err := ParseRole(cfg.Node.Role)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	radioToNet := NewByteChannel(cfg.Bridge.BufferSize)
	netToRadio := NewByteChannel(cfg.Bridge.BufferSize)

	shared := radioToNet
	if role == RoleDownlink {
		shared = netToRadio
	}

	dataRate, err := radio.ParseDataRate(cfg.Radio.Advanced.DataRate)
	if err != nil && cfg.Radio.Advanced.Enabled {
		return nil, fmt.Errorf("bridge: %w", err)
	}

	stats := &Stats{}
	topics := mqtt.Topics{}

	b := &Bridge{
		role:       role,
		nodeID:     cfg.Node.ID,
		logger:     logger,
		radioToNet: radioToNet,
		netToRadio: netToRadio,
		stats:      stats,
		telemetry:  opts.Telemetry,
		done:       make(chan struct{}),
	}

	b.radioWorker = NewRadioWorker(RadioWorkerConfig{
		Device:              opts.Device,
		Channel:             shared,
		Role:                role,
		RFChannel:           uint8(cfg.Radio.Channel), // #nosec G115 -- validated 0-125
		PayloadSize:         cfg.Radio.PayloadSize,
		LocalAddress:        []byte(cfg.Radio.LocalAddress),
		PeerAddress:         []byte(cfg.Radio.PeerAddress),
		Tuning:              cfg.Radio.Advanced.Enabled,
		DataRate:            dataRate,
		RetransmitDelay:     cfg.GetRetransmitDelay(),
		SendTimeout:         cfg.GetSendTimeout(),
		SendCompleteTimeout: cfg.GetSendCompleteTimeout(),
		IdleDelay:           cfg.GetIdleDelay(),
		Stats:               stats,
		Logger:              logger,
	})

	b.transportWorker = NewTransportWorker(TransportWorkerConfig{
		Transport:   opts.Transport,
		Channel:     shared,
		Role:        role,
		FrameTopic:  topics.Frames(cfg.Node.Link),
		QoS:         byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0-2
		PayloadSize: cfg.Radio.PayloadSize,
		SendTimeout: cfg.GetSendTimeout(),
		Stats:       stats,
		Logger:      logger,
	})

	b.health = NewHealthReporter(HealthReporterConfig{
		NodeID:    cfg.Node.ID,
		Role:      role,
		Interval:  cfg.GetHealthInterval(),
		Publisher: opts.Transport,
		Stats:     stats,
		Logger:    logger,
	})
	b.telemetryEvery = cfg.GetHealthInterval()

	return b, nil
}

// Start launches the worker pair, the health reporter, and the
// optional telemetry loop. Workers run until Stop or context end.
func (b *Bridge) Start(ctx context.Context) {
	b.logger.Info("bridge starting", "node_id", b.nodeID, "role", string(b.role))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.radioWorker.Run(ctx); err != nil {
			b.logger.Error("radio worker stopped", "error", err)
		}
	}()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.transportWorker.Run(ctx); err != nil {
			b.logger.Error("transport worker stopped", "error", err)
		}
	}()

	b.health.Start(ctx)

	if b.telemetry != nil {
		b.wg.Add(1)
		go b.telemetryLoop(ctx)
	}
}

// Stop shuts the bridge down: closes both channels to unblock the
// workers, stops the health reporter, and waits for everything to
// finish. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.logger.Info("bridge stopping", "node_id", b.nodeID)
		close(b.done)
		b.radioToNet.Close()
		b.netToRadio.Close()
		b.health.Stop()
		b.wg.Wait()
	})
}

// Stats returns the live frame counters.
func (b *Bridge) Stats() *Stats {
	return b.stats
}

// telemetryLoop exports frame counters at the health interval.
func (b *Bridge) telemetryLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.telemetryEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.telemetry.WriteFrameCounters(b.nodeID, string(b.role), b.Stats().Snapshot())
		}
	}
}
