package netlink

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrRetriesExhausted is returned by Join when the retry budget is spent
// without the interface acquiring an address.
var ErrRetriesExhausted = errors.New("netlink: join retries exhausted")

// State is the connectivity bootstrap state.
type State int

const (
	// StateIdle means Join has not been called yet.
	StateIdle State = iota

	// StateJoining means the bootstrap is waiting for an address.
	StateJoining

	// StateJoined means the interface acquired an address.
	StateJoined

	// StateFailed means the retry budget was exhausted.
	StateFailed
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Link abstracts the join interface's link layer.
//
// InterfaceMonitor is the production implementation; tests supply fakes.
type Link interface {
	// Start brings the link layer up. Events begin flowing afterwards.
	Start() error

	// Connect issues a join request on the started link.
	Connect() error
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// nopLogger discards all log output.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Bootstrap drives the connectivity join state machine.
//
// It runs once at startup, before any bridge worker: start the link,
// react to events, and either return the acquired address or give up
// after the configured number of consecutive disconnects.
//
// State transitions:
//
//	Idle → Joining          on Join()
//	Joining → Joined        on AddressAcquired
//	Joining → Failed        on the Nth consecutive disconnect
//
// A successful address acquisition resets the retry counter, so budget
// exhaustion requires consecutive failures.
type Bootstrap struct {
	link       Link
	bus        *Bus
	maxRetries int
	logger     Logger

	state    State
	attempts int
	stateMu  sync.RWMutex
}

// NewBootstrap creates a bootstrap for the given link.
//
// Parameters:
//   - link: the link to start and join (InterfaceMonitor in production)
//   - bus: event bus the link publishes to
//   - maxRetries: consecutive disconnects tolerated before Failed (>= 1)
//   - logger: optional logger (nil discards output)
func NewBootstrap(link Link, bus *Bus, maxRetries int, logger Logger) *Bootstrap {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Bootstrap{
		link:       link,
		bus:        bus,
		maxRetries: maxRetries,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current bootstrap state.
func (b *Bootstrap) State() State {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

func (b *Bootstrap) setState(s State) {
	b.stateMu.Lock()
	b.state = s
	b.stateMu.Unlock()
}

// Attempts returns how many disconnects Join saw before finishing.
func (b *Bootstrap) Attempts() int {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.attempts
}

func (b *Bootstrap) recordAttempts(n int) {
	b.stateMu.Lock()
	b.attempts = n
	b.stateMu.Unlock()
}

// Join runs the bootstrap to completion.
//
// It subscribes to the event bus, starts the link, and processes
// events until the interface acquires an address or the retry budget
// is exhausted.
//
// Parameters:
//   - ctx: cancels the wait (returns ctx.Err())
//
// Returns:
//   - string: the acquired interface address
//   - error: ErrRetriesExhausted after maxRetries consecutive
//     disconnects, or a wrapped error if the link fails to start
func (b *Bootstrap) Join(ctx context.Context) (string, error) {
	events, cancel := b.bus.Subscribe()
	defer cancel()

	b.setState(StateJoining)
	b.logger.Info("starting join", "max_retries", b.maxRetries)

	if err := b.link.Start(); err != nil {
		b.setState(StateFailed)
		return "", fmt.Errorf("starting link: %w", err)
	}

	retries := 0
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("join interrupted: %w", ctx.Err())

		case ev := <-events:
			switch ev.Kind {
			case LinkStarted:
				b.logger.Debug("link started, issuing join request")
				if err := b.link.Connect(); err != nil {
					b.logger.Warn("join request failed", "error", err)
				}

			case LinkDisconnected:
				retries++
				b.recordAttempts(retries)
				if retries < b.maxRetries {
					b.logger.Info("link disconnected, retrying join",
						"attempt", retries,
						"max_retries", b.maxRetries,
					)
					if err := b.link.Connect(); err != nil {
						b.logger.Warn("join request failed", "error", err)
					}
				} else {
					b.logger.Error("join retries exhausted", "attempts", retries)
					b.setState(StateFailed)
					return "", ErrRetriesExhausted
				}

			case AddressAcquired:
				retries = 0
				b.setState(StateJoined)
				b.logger.Info("address acquired", "addr", ev.Addr)
				return ev.Addr, nil
			}
		}
	}
}
