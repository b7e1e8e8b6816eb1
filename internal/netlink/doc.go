// Package netlink provides the connectivity bootstrap for the gateway.
//
// Before the bridge can run, the join interface must be up and hold an
// address. This package models that as a small event-driven state
// machine:
//
//   - Bus carries connectivity events (link started, disconnected,
//     address acquired) from the link to any number of subscribers.
//   - InterfaceMonitor watches a named network interface and publishes
//     events as its state changes.
//   - Bootstrap subscribes, starts the link, and retries join requests
//     until an address appears or the retry budget is exhausted.
//
// # Usage
//
//	bus := netlink.NewBus()
//	mon := netlink.NewInterfaceMonitor("wlan0", 500*time.Millisecond, bus, logger)
//	boot := netlink.NewBootstrap(mon, bus, 5, logger)
//
//	addr, err := boot.Join(ctx)
//	if errors.Is(err, netlink.ErrRetriesExhausted) {
//	    // fatal: no connectivity
//	}
//
// Bootstrap runs exactly once at startup. After it returns Joined the
// bridge workers take over and the monitor keeps running only for
// logging purposes.
package netlink
