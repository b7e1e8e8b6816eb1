package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/radiobridge/internal/infrastructure/mqtt"
)

// Health status values reported by the gateway.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthStopping = "stopping"
)

// HealthPublisher is the slice of the transport the reporter needs.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthMessage is the JSON payload published to the node's health topic.
type HealthMessage struct {
	NodeID        string            `json:"node_id"`
	Role          string            `json:"role"`
	Status        string            `json:"status"`
	Reason        string            `json:"reason,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Counters      map[string]uint64 `json:"counters"`
	Timestamp     string            `json:"timestamp"`
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// NodeID and Role identify this gateway in health messages.
	NodeID string
	Role   Role

	// Interval is how often to publish. Default: 30 seconds.
	Interval time.Duration

	// Publisher delivers health messages.
	Publisher HealthPublisher

	// Stats supplies the frame counters included in each report.
	Stats *Stats

	Logger Logger
}

// HealthReporter periodically publishes the gateway's health status
// and frame counters to the node's health topic.
type HealthReporter struct {
	nodeID    string
	role      Role
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	stats     *Stats
	logger    Logger

	// stopOnce prevents double-close panics
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHealthReporter creates a reporter. Call Start to begin publishing.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &HealthReporter{
		nodeID:    cfg.NodeID,
		role:      cfg.Role,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		stats:     cfg.Stats,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins periodic reporting. Call Stop to shut down.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop halts reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		// Best-effort during shutdown, nothing we can do if it fails.
		//nolint:errcheck
		h.publishStatus(HealthStopping, "gateway stopping")
	})
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// reportLoop runs the periodic publishing.
func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logger.Warn("initial health publish failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logger.Warn("health publish failed", "error", err)
			}
		}
	}
}

// determineStatus evaluates the gateway's current status.
func (h *HealthReporter) determineStatus() (status, reason string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "transport disconnected"
	}
	return HealthHealthy, ""
}

// publishStatus builds and publishes one health message.
func (h *HealthReporter) publishStatus(status, reason string) error {
	if h.publisher == nil {
		return nil
	}

	var counters map[string]uint64
	if h.stats != nil {
		counters = h.stats.Snapshot()
	}

	msg := HealthMessage{
		NodeID:        h.nodeID,
		Role:          string(h.role),
		Status:        status,
		Reason:        reason,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Counters:      counters,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	topics := mqtt.Topics{}
	return h.publisher.Publish(topics.Health(h.nodeID), payload, 1, true)
}
