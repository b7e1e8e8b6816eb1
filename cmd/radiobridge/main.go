// radiobridge - nRF24 to MQTT gateway
//
// This is the main entry point for the radiobridge gateway. The
// gateway pairs a half-duplex nRF24-class packet radio with an MQTT
// broker: an uplink node receives frames over the air and publishes
// them, a downlink node subscribes and transmits. Two gateways with
// opposite roles form one bidirectional link.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nerrad567/radiobridge/internal/bridge"
	"github.com/nerrad567/radiobridge/internal/discovery"
	"github.com/nerrad567/radiobridge/internal/infrastructure/config"
	"github.com/nerrad567/radiobridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/radiobridge/internal/infrastructure/logging"
	"github.com/nerrad567/radiobridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/radiobridge/internal/infrastructure/store"
	"github.com/nerrad567/radiobridge/internal/netlink"
	"github.com/nerrad567/radiobridge/internal/radio"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Startup order matters: the settings store and network join are fatal
// prerequisites; everything after them is wired in dependency order and
// torn down in reverse by the deferred closes.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting radiobridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open settings store
	st, err := store.Open(ctx, store.Config{
		Path:        cfg.Store.Path,
		WALMode:     cfg.Store.WALMode,
		BusyTimeout: cfg.Store.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		log.Info("closing store")
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()
	log.Info("store opened", "path", cfg.Store.Path)

	// Join the network. Without connectivity the bridge cannot do
	// anything useful, so a failed join aborts startup.
	addr, err := joinNetwork(ctx, cfg, st, log)
	if err != nil {
		return fmt.Errorf("joining network: %w", err)
	}
	log.Info("network joined", "interface", cfg.Network.Interface, "address", addr)

	// Resolve the broker host (best-effort for .local names)
	cfg.MQTT.Broker.Host = resolveBrokerHost(ctx, cfg, st, log)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	var telemetry bridge.TelemetryWriter
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		telemetry = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open the radio device
	dev, err := radio.Open(cfg.Radio.Device, cfg.Radio.BaudRate)
	if err != nil {
		return fmt.Errorf("opening radio: %w", err)
	}
	defer func() {
		log.Info("closing radio")
		if closeErr := dev.Close(); closeErr != nil {
			log.Error("error closing radio", "error", closeErr)
		}
	}()
	log.Info("radio opened", "device", cfg.Radio.Device, "baud", cfg.Radio.BaudRate)

	// Start the bridge
	br, err := bridge.New(bridge.Options{
		Config:    cfg,
		Device:    dev,
		Transport: &mqttBridgeAdapter{client: mqttClient},
		Telemetry: telemetry,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	br.Start(ctx)
	defer br.Stop()

	// Verify all connections are healthy
	if err := healthCheck(ctx, st, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"node_id", cfg.Node.ID,
		"role", cfg.Node.Role,
		"link", cfg.Node.Link,
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// joinNetwork runs the connectivity bootstrap against the configured
// interface and records the attempt count in the store.
func joinNetwork(ctx context.Context, cfg *config.Config, st *store.Store, log *logging.Logger) (string, error) {
	bus := netlink.NewBus()
	monitor := netlink.NewInterfaceMonitor(cfg.Network.Interface, cfg.GetPollInterval(), bus, log)
	defer monitor.Stop()

	boot := netlink.NewBootstrap(monitor, bus, cfg.Network.MaxJoinRetries, log)
	addr, err := boot.Join(ctx)

	if putErr := st.Put(ctx, "join/attempts", strconv.Itoa(boot.Attempts())); putErr != nil {
		log.Warn("could not record join attempts", "error", putErr)
	}
	if err != nil {
		return "", err
	}
	return addr, nil
}

// resolveBrokerHost resolves a ".local" broker name to a numeric
// address via mDNS. Resolution is best-effort: any failure falls back
// to the configured name, and a successful answer is cached in the
// store for diagnostics.
func resolveBrokerHost(ctx context.Context, cfg *config.Config, st *store.Store, log *logging.Logger) string {
	host := cfg.MQTT.Broker.Host
	if !cfg.Discovery.Enabled {
		return host
	}

	resolver, err := discovery.New(cfg.GetQueryTimeout(), log)
	if err != nil {
		log.Warn("discovery unavailable, using configured broker host", "error", err)
		return host
	}
	defer func() {
		if closeErr := resolver.Close(); closeErr != nil {
			log.Warn("error closing resolver", "error", closeErr)
		}
	}()

	resolved := resolver.Resolve(ctx, host)
	if resolved != host {
		log.Info("broker host resolved", "name", host, "address", resolved)
		if putErr := st.Put(ctx, "broker/last_resolved", resolved); putErr != nil {
			log.Warn("could not record resolved broker address", "error", putErr)
		}
	}
	return resolved
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - st: Settings store to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, st *store.Store, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := st.HealthCheck(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses RADIOBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RADIOBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// mqttBridgeAdapter narrows the mqtt client to the bridge's Transport
// interface, converting between the two packages' handler types.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler bridge.MessageHandler) error {
	return a.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}

func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
