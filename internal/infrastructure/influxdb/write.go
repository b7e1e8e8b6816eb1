package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteFrameCounters writes a snapshot of bridge frame counters.
//
// This is the primary telemetry call, made periodically alongside health
// reporting. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - nodeID: Gateway node identifier (e.g., "gw-field-01")
//   - role: Node role ("uplink" or "downlink")
//   - counters: Counter names mapped to their current cumulative values
//
// Example:
//
//	client.WriteFrameCounters("gw-field-01", "uplink", map[string]uint64{
//	    "frames_received":  120,
//	    "frames_published": 118,
//	})
func (c *Client) WriteFrameCounters(nodeID string, role string, counters map[string]uint64) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(counters))
	for name, value := range counters {
		// #nosec G115 -- counters never approach int64 range in practice
		fields[name] = int64(value)
	}

	point := write.NewPoint(
		"bridge_frames",
		map[string]string{
			"node_id": nodeID,
			"role":    role,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLinkEvent records a connectivity event such as a join attempt,
// a disconnect, or a broker resolution.
//
// Parameters:
//   - nodeID: Gateway node identifier
//   - event: Event name (e.g., "join_attempt", "link_disconnected")
func (c *Client) WriteLinkEvent(nodeID string, event string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"link_events",
		map[string]string{
			"node_id": nodeID,
			"event":   event,
		},
		map[string]interface{}{
			"count": int64(1),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("serial_stats",
//	    map[string]string{"device": "/dev/ttyUSB0"},
//	    map[string]interface{}{"bytes_read": 4096})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
