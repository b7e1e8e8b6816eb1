package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  id: "gw-field-01"
  role: "downlink"
  link: "paddock-link"
radio:
  device: "/dev/ttyUSB1"
  channel: 76
  payload_size: 32
  local_address: "ABCDE"
  peer_address: "FGHIJ"
network:
  interface: "wlan0"
  max_join_retries: 3
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "gw-field-01"
  qos: 1
store:
  path: "/tmp/radiobridge-test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.ID != "gw-field-01" {
		t.Errorf("Node.ID = %q, want %q", cfg.Node.ID, "gw-field-01")
	}
	if cfg.Node.Role != "downlink" {
		t.Errorf("Node.Role = %q, want %q", cfg.Node.Role, "downlink")
	}
	if cfg.Radio.Channel != 76 {
		t.Errorf("Radio.Channel = %d, want 76", cfg.Radio.Channel)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}

	// Defaults fill unset sections
	if cfg.Bridge.BufferSize != 1024 {
		t.Errorf("Bridge.BufferSize = %d, want default 1024", cfg.Bridge.BufferSize)
	}
	if !cfg.Discovery.Enabled {
		t.Error("Discovery.Enabled = false, want default true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	content := `
node:
  id: "gw-01"
  role: "uplink"
mqtt:
  broker:
    host: "from-file.local"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("RADIOBRIDGE_MQTT_HOST", "from-env.local")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "from-env.local" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "from-env.local")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing node id",
			mutate:  func(c *Config) { c.Node.ID = "" },
			wantErr: "node.id",
		},
		{
			name:    "invalid role",
			mutate:  func(c *Config) { c.Node.Role = "relay" },
			wantErr: "node.role",
		},
		{
			name:    "channel out of range",
			mutate:  func(c *Config) { c.Radio.Channel = 126 },
			wantErr: "radio.channel",
		},
		{
			name:    "payload too large",
			mutate:  func(c *Config) { c.Radio.PayloadSize = 64 },
			wantErr: "radio.payload_size",
		},
		{
			name:    "short local address",
			mutate:  func(c *Config) { c.Radio.LocalAddress = "ABC" },
			wantErr: "radio.local_address",
		},
		{
			name: "bad data rate with tuning enabled",
			mutate: func(c *Config) {
				c.Radio.Advanced.Enabled = true
				c.Radio.Advanced.DataRate = "4mbps"
			},
			wantErr: "data_rate",
		},
		{
			name:    "zero retry budget",
			mutate:  func(c *Config) { c.Network.MaxJoinRetries = 0 },
			wantErr: "max_join_retries",
		},
		{
			name:    "buffer smaller than a frame",
			mutate:  func(c *Config) { c.Bridge.BufferSize = 16 },
			wantErr: "buffer_size",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "store.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetSendTimeout().Milliseconds(); got != 100 {
		t.Errorf("GetSendTimeout() = %dms, want 100ms", got)
	}
	if got := cfg.GetSendCompleteTimeout().Milliseconds(); got != 1000 {
		t.Errorf("GetSendCompleteTimeout() = %dms, want 1000ms", got)
	}
	if got := cfg.GetQueryTimeout().Seconds(); got != 10 {
		t.Errorf("GetQueryTimeout() = %gs, want 10s", got)
	}
}
