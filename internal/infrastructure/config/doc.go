// Package config provides configuration loading for the radiobridge gateway.
//
// Configuration is loaded from a single YAML file, starting from hardcoded
// defaults, then file values, then RADIOBRIDGE_* environment variable
// overrides. Validation collects all problems into one error so a bad
// config file is fixed in one pass.
//
// # Sections
//
//   - node: identity, role (uplink/downlink), link name
//   - radio: serial device, RF channel, payload size, addressing, tuning
//   - network: join interface and retry budget
//   - bridge: channel capacity and worker timeouts
//   - mqtt: broker, auth, QoS, reconnect behavior
//   - discovery: mDNS resolution of .local broker names
//   - store: SQLite settings store
//   - influxdb: optional frame telemetry
//   - logging: level, format, output
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
