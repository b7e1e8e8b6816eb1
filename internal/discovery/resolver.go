package discovery

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
)

// LocalSuffix marks hostnames that require multicast DNS resolution.
const LocalSuffix = ".local"

// Querier performs a single multicast DNS address lookup.
// The production implementation wraps a pion/mdns connection; tests
// substitute fakes.
type Querier interface {
	QueryAddr(ctx context.Context, name string) (netip.Addr, error)
	Close() error
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Resolver turns configured broker hostnames into connectable addresses.
//
// Names without the .local suffix pass through untouched; .local names
// are resolved with one bounded mDNS query. Resolution is strictly
// best-effort: any failure logs a warning and returns the input
// unchanged, leaving the MQTT client to attempt the original name.
type Resolver struct {
	querier Querier
	timeout time.Duration
	logger  Logger
}

// New creates a Resolver backed by a multicast DNS socket.
//
// Parameters:
//   - timeout: per-query deadline (the original gateway used 10 s)
//   - logger: optional logger (nil discards output)
//
// Returns:
//   - *Resolver: ready for Resolve calls; Close releases the socket
//   - error: if the multicast socket cannot be opened
func New(timeout time.Duration, logger Logger) (*Resolver, error) {
	addr, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return nil, fmt.Errorf("resolving mdns multicast address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("opening mdns socket: %w", err)
	}

	server, err := mdns.Server(ipv4.NewPacketConn(conn), nil, &mdns.Config{})
	if err != nil {
		conn.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("starting mdns listener: %w", err)
	}

	return NewWithQuerier(&mdnsQuerier{conn: server}, timeout, logger), nil
}

// mdnsQuerier adapts a pion/mdns connection to the Querier interface.
// The connection's QueryAddr also returns the answer's resource header,
// which the resolver has no use for.
type mdnsQuerier struct {
	conn *mdns.Conn
}

func (q *mdnsQuerier) QueryAddr(ctx context.Context, name string) (netip.Addr, error) {
	_, addr, err := q.conn.QueryAddr(ctx, name)
	return addr, err
}

func (q *mdnsQuerier) Close() error {
	return q.conn.Close()
}

// NewWithQuerier creates a Resolver with a caller-supplied Querier.
// Used by tests and by callers that manage the socket themselves.
func NewWithQuerier(q Querier, timeout time.Duration, logger Logger) *Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Resolver{
		querier: q,
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve maps a broker hostname to a connectable address.
//
// Behavior:
//   - names not ending in .local are returned unchanged
//   - .local names trigger one mDNS query with the configured timeout
//   - on success the numeric address string is returned
//   - on any failure the original name is returned and a warning logged
//
// Parameters:
//   - ctx: bounds the query in addition to the configured timeout
//   - name: hostname from configuration (e.g. "broker.local")
//
// Returns:
//   - string: numeric address, or the input unchanged
func (r *Resolver) Resolve(ctx context.Context, name string) string {
	if !strings.HasSuffix(name, LocalSuffix) {
		return name
	}

	queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("resolving broker hostname", "name", name)

	addr, err := r.querier.QueryAddr(queryCtx, name)
	if err != nil {
		r.logger.Warn("mdns resolution failed, using configured name",
			"name", name,
			"error", err,
		)
		return name
	}

	resolved := addr.String()
	r.logger.Debug("broker hostname resolved", "name", name, "addr", resolved)
	return resolved
}

// Close releases the underlying multicast socket.
func (r *Resolver) Close() error {
	if r.querier == nil {
		return nil
	}
	return r.querier.Close()
}
