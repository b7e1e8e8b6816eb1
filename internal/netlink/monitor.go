package netlink

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// InterfaceMonitor is the production Link implementation.
//
// It polls a named network interface and publishes connectivity events
// to the bus: LinkStarted once monitoring begins, LinkDisconnected when
// the interface goes down or loses its address, and AddressAcquired
// when a global unicast IPv4 address appears.
//
// Association itself is handled by the operating system (supplicant,
// DHCP client); Connect is therefore a no-op beyond logging. The
// monitor only observes the result.
type InterfaceMonitor struct {
	name   string
	poll   time.Duration
	bus    *Bus
	logger Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewInterfaceMonitor creates a monitor for the named interface.
//
// Parameters:
//   - name: interface name, e.g. "wlan0"
//   - poll: how often to sample interface state
//   - bus: event bus to publish to
//   - logger: optional logger (nil discards output)
func NewInterfaceMonitor(name string, poll time.Duration, bus *Bus, logger Logger) *InterfaceMonitor {
	if logger == nil {
		logger = nopLogger{}
	}
	return &InterfaceMonitor{
		name:   name,
		poll:   poll,
		bus:    bus,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start verifies the interface exists and begins the watch goroutine.
//
// The goroutine publishes LinkStarted first, then state transitions as
// they are observed. Call Stop to shut down.
//
// Returns:
//   - error: if the interface does not exist
func (m *InterfaceMonitor) Start() error {
	if _, err := net.InterfaceByName(m.name); err != nil {
		return fmt.Errorf("interface %q: %w", m.name, err)
	}

	m.wg.Add(1)
	go m.watch()

	return nil
}

// Connect logs the join request.
//
// The OS supplicant associates and obtains the address; the watch
// goroutine reports the outcome through the bus.
func (m *InterfaceMonitor) Connect() error {
	m.logger.Debug("join requested, waiting for OS to associate", "interface", m.name)
	return nil
}

// Stop shuts down the watch goroutine. Safe to call multiple times.
func (m *InterfaceMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

// watch polls interface state and publishes transitions.
func (m *InterfaceMonitor) watch() {
	defer m.wg.Done()

	m.bus.Publish(Event{Kind: LinkStarted})

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	var lastUp bool
	var lastAddr string

	for {
		select {
		case <-m.done:
			return

		case <-ticker.C:
			up, addr := m.sample()

			switch {
			case addr != "" && addr != lastAddr:
				m.logger.Debug("interface address observed",
					"interface", m.name,
					"addr", addr,
				)
				m.bus.Publish(Event{Kind: AddressAcquired, Addr: addr})

			case lastUp && !up:
				m.logger.Warn("interface went down", "interface", m.name)
				m.bus.Publish(Event{Kind: LinkDisconnected})

			case lastAddr != "" && addr == "":
				m.logger.Warn("interface lost address", "interface", m.name)
				m.bus.Publish(Event{Kind: LinkDisconnected})
			}

			lastUp = up
			lastAddr = addr
		}
	}
}

// sample reads the interface's current state.
//
// Returns whether the link is up and the first global unicast IPv4
// address, or "" if none is assigned.
func (m *InterfaceMonitor) sample() (up bool, addr string) {
	iface, err := net.InterfaceByName(m.name)
	if err != nil {
		return false, ""
	}

	up = iface.Flags&net.FlagUp != 0
	if !up {
		return false, ""
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return up, ""
	}

	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil || !ip4.IsGlobalUnicast() {
			continue
		}
		return up, ip4.String()
	}

	return up, ""
}
