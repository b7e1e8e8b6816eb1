package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the radiobridge gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Radio     RadioConfig     `yaml:"radio"`
	Network   NetworkConfig   `yaml:"network"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Store     StoreConfig     `yaml:"store"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NodeConfig identifies this gateway node and its role on the radio link.
type NodeConfig struct {
	// ID is the unique identifier for this node (used in MQTT topics and health reports).
	ID string `yaml:"id"`

	// Role selects which direction this node bridges: "uplink" (radio → MQTT)
	// or "downlink" (MQTT → radio). A node runs exactly one role; the radio
	// hardware is half-duplex.
	Role string `yaml:"role"`

	// Link names the radio link this node belongs to. Both ends of a link
	// share the same value so they meet on the same frame topic.
	Link string `yaml:"link"`
}

// RadioConfig contains the transceiver settings.
type RadioConfig struct {
	// Device is the serial port the radio adapter is attached to.
	Device string `yaml:"device"`

	// BaudRate is the serial line speed. Default: 115200.
	BaudRate int `yaml:"baud_rate"`

	// Channel is the RF channel number (0-125).
	Channel int `yaml:"channel"`

	// PayloadSize is the fixed hardware frame size in bytes (1-32).
	PayloadSize int `yaml:"payload_size"`

	// LocalAddress is this node's 5-byte receive address.
	LocalAddress string `yaml:"local_address"`

	// PeerAddress is the remote node's 5-byte transmit address.
	PeerAddress string `yaml:"peer_address"`

	// Advanced contains optional RF tuning applied after addressing.
	Advanced RadioAdvancedConfig `yaml:"advanced"`
}

// RadioAdvancedConfig contains optional RF tuning parameters.
type RadioAdvancedConfig struct {
	// Enabled turns on the tuning block below.
	Enabled bool `yaml:"enabled"`

	// DataRate is the air data rate: "1mbps", "2mbps" or "250kbps".
	DataRate string `yaml:"data_rate"`

	// RetransmitDelayMicros is the auto-retransmit delay in microseconds.
	RetransmitDelayMicros int `yaml:"retransmit_delay_us"`
}

// NetworkConfig contains the IP connectivity bootstrap settings.
type NetworkConfig struct {
	// Interface is the network interface the gateway joins through (e.g. "wlan0").
	Interface string `yaml:"interface"`

	// MaxJoinRetries bounds consecutive join attempts before the bootstrap
	// gives up and startup aborts.
	MaxJoinRetries int `yaml:"max_join_retries"`

	// PollIntervalMillis is how often the interface monitor samples link state.
	PollIntervalMillis int `yaml:"poll_interval_ms"`
}

// BridgeConfig contains the frame bridge settings.
type BridgeConfig struct {
	// BufferSize is the byte capacity of each bounded channel between the
	// radio worker and the transport worker.
	BufferSize int `yaml:"buffer_size"`

	// SendTimeoutMillis bounds waits for channel space when enqueueing a frame.
	SendTimeoutMillis int `yaml:"send_timeout_ms"`

	// SendCompleteTimeoutMillis bounds the wait for the radio's
	// send-complete acknowledgement.
	SendCompleteTimeoutMillis int `yaml:"send_complete_timeout_ms"`

	// IdleDelayMillis is the per-iteration delay taken when the radio has
	// no data ready.
	IdleDelayMillis int `yaml:"idle_delay_ms"`

	// HealthIntervalSeconds is how often the bridge publishes its health status.
	HealthIntervalSeconds int `yaml:"health_interval_seconds"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
// Host may be a literal address or a ".local" name resolved at startup
// via local-network discovery.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DiscoveryConfig contains local-network name discovery settings.
type DiscoveryConfig struct {
	// Enabled turns mDNS resolution on. When disabled, ".local" names are
	// passed through unresolved.
	Enabled bool `yaml:"enabled"`

	// QueryTimeoutSeconds bounds a single name query.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
}

// StoreConfig contains the settings store (SQLite) configuration.
type StoreConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for frame telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RADIOBRIDGE_SECTION_KEY
// For example: RADIOBRIDGE_MQTT_HOST, RADIOBRIDGE_NODE_ROLE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:   "radiobridge-01",
			Role: "uplink",
			Link: "link-01",
		},
		Radio: RadioConfig{
			Device:       "/dev/ttyUSB0",
			BaudRate:     115200,
			Channel:      90,
			PayloadSize:  32,
			LocalAddress: "FGHIJ",
			PeerAddress:  "FGHIJ",
			Advanced: RadioAdvancedConfig{
				DataRate:              "1mbps",
				RetransmitDelayMicros: 500,
			},
		},
		Network: NetworkConfig{
			Interface:          "wlan0",
			MaxJoinRetries:     5,
			PollIntervalMillis: 500,
		},
		Bridge: BridgeConfig{
			BufferSize:                1024,
			SendTimeoutMillis:         100,
			SendCompleteTimeoutMillis: 1000,
			IdleDelayMillis:           10,
			HealthIntervalSeconds:     30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Discovery: DiscoveryConfig{
			Enabled:             true,
			QueryTimeoutSeconds: 10,
		},
		Store: StoreConfig{
			Path:        "./data/radiobridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RADIOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Node
	if v := os.Getenv("RADIOBRIDGE_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv("RADIOBRIDGE_NODE_ROLE"); v != "" {
		cfg.Node.Role = v
	}

	// Radio
	if v := os.Getenv("RADIOBRIDGE_RADIO_DEVICE"); v != "" {
		cfg.Radio.Device = v
	}

	// Network
	if v := os.Getenv("RADIOBRIDGE_NETWORK_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}

	// MQTT
	if v := os.Getenv("RADIOBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RADIOBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RADIOBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Store
	if v := os.Getenv("RADIOBRIDGE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	// InfluxDB
	if v := os.Getenv("RADIOBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// validDataRates are the accepted radio.advanced.data_rate values.
var validDataRates = map[string]bool{
	"1mbps":   true,
	"2mbps":   true,
	"250kbps": true,
}

// Radio hardware limits.
const (
	maxRadioChannel  = 125
	maxPayloadSize   = 32
	radioAddressSize = 5
)

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Node validation
	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}
	if c.Node.Role != "uplink" && c.Node.Role != "downlink" {
		errs = append(errs, `node.role must be "uplink" or "downlink"`)
	}
	if c.Node.Link == "" {
		errs = append(errs, "node.link is required")
	}

	// Radio validation
	if c.Radio.Device == "" {
		errs = append(errs, "radio.device is required")
	}
	if c.Radio.Channel < 0 || c.Radio.Channel > maxRadioChannel {
		errs = append(errs, fmt.Sprintf("radio.channel must be 0-%d", maxRadioChannel))
	}
	if c.Radio.PayloadSize < 1 || c.Radio.PayloadSize > maxPayloadSize {
		errs = append(errs, fmt.Sprintf("radio.payload_size must be 1-%d", maxPayloadSize))
	}
	if len(c.Radio.LocalAddress) != radioAddressSize {
		errs = append(errs, fmt.Sprintf("radio.local_address must be exactly %d bytes", radioAddressSize))
	}
	if len(c.Radio.PeerAddress) != radioAddressSize {
		errs = append(errs, fmt.Sprintf("radio.peer_address must be exactly %d bytes", radioAddressSize))
	}
	if c.Radio.Advanced.Enabled && !validDataRates[c.Radio.Advanced.DataRate] {
		errs = append(errs, `radio.advanced.data_rate must be "1mbps", "2mbps" or "250kbps"`)
	}

	// Network validation
	if c.Network.Interface == "" {
		errs = append(errs, "network.interface is required")
	}
	if c.Network.MaxJoinRetries < 1 {
		errs = append(errs, "network.max_join_retries must be at least 1")
	}

	// Bridge validation
	if c.Bridge.BufferSize < c.Radio.PayloadSize {
		errs = append(errs, "bridge.buffer_size must hold at least one radio frame")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Store validation
	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetSendTimeout returns the channel send timeout as a Duration.
func (c *Config) GetSendTimeout() time.Duration {
	return time.Duration(c.Bridge.SendTimeoutMillis) * time.Millisecond
}

// GetSendCompleteTimeout returns the radio send-complete wait as a Duration.
func (c *Config) GetSendCompleteTimeout() time.Duration {
	return time.Duration(c.Bridge.SendCompleteTimeoutMillis) * time.Millisecond
}

// GetIdleDelay returns the radio worker idle delay as a Duration.
func (c *Config) GetIdleDelay() time.Duration {
	return time.Duration(c.Bridge.IdleDelayMillis) * time.Millisecond
}

// GetHealthInterval returns the health reporting interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Bridge.HealthIntervalSeconds) * time.Second
}

// GetPollInterval returns the interface monitor poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Network.PollIntervalMillis) * time.Millisecond
}

// GetQueryTimeout returns the discovery query timeout as a Duration.
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.Discovery.QueryTimeoutSeconds) * time.Second
}

// GetRetransmitDelay returns the radio retransmit delay as a Duration.
func (c *Config) GetRetransmitDelay() time.Duration {
	return time.Duration(c.Radio.Advanced.RetransmitDelayMicros) * time.Microsecond
}
