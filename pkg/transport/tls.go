package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/pushgate-protocol/pushgate-go/pkg/trust"
)

// TLSConfig holds configuration for the secure gateway connection.
type TLSConfig struct {
	// Trust is the source of trust anchors for server certificate
	// validation. Nil means the system root store.
	Trust trust.Store

	// ServerName overrides the validation name derived from the gateway
	// host. Leave empty to use the second dot-group heuristic.
	ServerName string

	// InsecureSkipVerify disables certificate verification.
	// Only for testing - never use in production!
	InsecureSkipVerify bool
}

// NewClientTLSConfig builds a crypto/tls client configuration from cfg.
// The validation name must already be resolved by the caller.
func NewClientTLSConfig(cfg *TLSConfig, serverName string) (*tls.Config, error) {
	if cfg == nil {
		cfg = &TLSConfig{}
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: serverName,

		// For testing only
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.Trust != nil {
		pool, err := cfg.Trust.Pool()
		if err != nil {
			return nil, fmt.Errorf("failed to assemble trust anchors: %w", err)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// Backend establishes the encrypted stream beneath the gateway socket.
// The backend is selected at configuration time, not per call.
type Backend interface {
	// Name returns the backend identifier used in configuration.
	Name() string

	// DialTLS opens a stream to addr and completes the TLS handshake.
	// A non-nil connection is returned only on full success.
	DialTLS(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error)
}

// TLSBackend is the default secure-transport backend built on crypto/tls.
type TLSBackend struct {
	// Dialer is the TCP dialer. The zero value is usable.
	Dialer net.Dialer
}

// Name returns "tls".
func (b *TLSBackend) Name() string {
	return "tls"
}

// DialTLS dials addr over TCP and completes the TLS handshake.
func (b *TLSBackend) DialTLS(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
	rawConn, err := b.Dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	tlsConn := tls.Client(rawConn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}

	return tlsConn, nil
}

// backendRegistry holds the secure-transport backends selectable by name.
var (
	backendMu       sync.RWMutex
	backendRegistry = map[string]Backend{
		"tls": &TLSBackend{},
	}
)

// RegisterBackend makes a secure-transport backend selectable by name.
// Registering a name twice replaces the previous backend.
func RegisterBackend(b Backend) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendRegistry[b.Name()] = b
}

// BackendByName returns the registered backend for name.
func BackendByName(name string) (Backend, bool) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	b, ok := backendRegistry[name]
	return b, ok
}

// BackendNames returns the names of all registered backends, sorted.
func BackendNames() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile-time interface satisfaction check.
var _ Backend = (*TLSBackend)(nil)
