package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("RADIOBRIDGE_CONFIG")
	defer os.Setenv("RADIOBRIDGE_CONFIG", originalEnv)

	os.Setenv("RADIOBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidStorePath verifies run fails when the store path is invalid.
func TestRun_InvalidStorePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
node:
  id: test-node
  role: uplink
  link: test-link

radio:
  device: /dev/null
  channel: 90
  payload_size: 32
  local_address: "ABCDE"
  peer_address: "FGHIJ"

network:
  interface: lo
  max_join_retries: 1
  poll_interval_ms: 50

store:
  path: ""

discovery:
  enabled: false

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
  qos: 1

influxdb:
  enabled: false

logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("RADIOBRIDGE_CONFIG")
	defer os.Setenv("RADIOBRIDGE_CONFIG", originalEnv)
	os.Setenv("RADIOBRIDGE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty store path")
	}
}

// TestRun_UnknownInterfaceFailsBootstrap verifies that a join against a
// nonexistent interface aborts startup.
func TestRun_UnknownInterfaceFailsBootstrap(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	storePath := filepath.Join(tmpDir, "test.db")

	configContent := `
node:
  id: test-node
  role: uplink
  link: test-link

radio:
  device: /dev/null
  channel: 90
  payload_size: 32
  local_address: "ABCDE"
  peer_address: "FGHIJ"

network:
  interface: no-such-interface-0
  max_join_retries: 1
  poll_interval_ms: 50

store:
  path: "` + storePath + `"

discovery:
  enabled: false

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
  qos: 1

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("RADIOBRIDGE_CONFIG")
	defer os.Setenv("RADIOBRIDGE_CONFIG", originalEnv)
	os.Setenv("RADIOBRIDGE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the join interface does not exist")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("RADIOBRIDGE_CONFIG")
	defer os.Setenv("RADIOBRIDGE_CONFIG", originalEnv)

	os.Unsetenv("RADIOBRIDGE_CONFIG")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("RADIOBRIDGE_CONFIG")
	defer os.Setenv("RADIOBRIDGE_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("RADIOBRIDGE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
