// Package influxdb provides optional frame telemetry for the radiobridge gateway.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking metric writing, and health monitoring.
//
// # Purpose
//
// This package records time-series data about the bridge:
//   - Frame counters (received, published, delivered, dropped)
//   - Radio send failures
//   - Connectivity events (join attempts, disconnects)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off, carry on without it
//	}
//	defer client.Close()
//
//	client.WriteFrameCounters("gw-field-01", "uplink", counters)
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback. Connection and health check errors are returned directly.
// The gateway treats telemetry as best-effort: a failed connect is logged
// and the bridge runs without it.
package influxdb
