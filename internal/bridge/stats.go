package bridge

import "sync/atomic"

// Stats holds the bridge's frame counters.
//
// Workers increment counters from their own goroutines; the health
// reporter and telemetry writer read them concurrently, so all fields
// are atomics.
type Stats struct {
	// FramesReceived counts frames read from the radio (uplink).
	FramesReceived atomic.Uint64

	// FramesPublished counts frames published to the frame topic (uplink).
	FramesPublished atomic.Uint64

	// FramesForwarded counts subscribed messages accepted into the
	// channel (downlink).
	FramesForwarded atomic.Uint64

	// FramesTransmitted counts frames acknowledged over the air (downlink).
	FramesTransmitted atomic.Uint64

	// FramesDropped counts frames discarded because the channel was
	// full or a publish failed.
	FramesDropped atomic.Uint64

	// SendFailures counts radio writes or send-complete waits that failed.
	SendFailures atomic.Uint64

	// BytesForwarded counts payload bytes moved end to end.
	BytesForwarded atomic.Uint64
}

// Snapshot returns the current counter values keyed by name.
func (s *Stats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"frames_received":    s.FramesReceived.Load(),
		"frames_published":   s.FramesPublished.Load(),
		"frames_forwarded":   s.FramesForwarded.Load(),
		"frames_transmitted": s.FramesTransmitted.Load(),
		"frames_dropped":     s.FramesDropped.Load(),
		"send_failures":      s.SendFailures.Load(),
		"bytes_forwarded":    s.BytesForwarded.Load(),
	}
}
