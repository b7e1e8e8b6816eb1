package netlink

// EventKind identifies a connectivity event on the join interface.
type EventKind int

const (
	// LinkStarted signals the link layer is up and ready to join.
	LinkStarted EventKind = iota

	// LinkDisconnected signals the link dropped or a join attempt failed.
	LinkDisconnected

	// AddressAcquired signals the interface obtained a usable address.
	AddressAcquired
)

// String returns a human-readable name for logging.
func (k EventKind) String() string {
	switch k {
	case LinkStarted:
		return "link_started"
	case LinkDisconnected:
		return "link_disconnected"
	case AddressAcquired:
		return "address_acquired"
	default:
		return "unknown"
	}
}

// Event is a connectivity notification delivered through the Bus.
type Event struct {
	Kind EventKind

	// Addr carries the acquired address for AddressAcquired events.
	// Empty for other kinds.
	Addr string
}
