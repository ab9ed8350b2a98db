package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

const (
	// FallbackHost is the validation name used when the gateway URL
	// carries no hostname.
	FallbackHost = "pushgate.io"

	// DefaultHandshakeTimeout bounds connect, TLS and upgrade together.
	DefaultHandshakeTimeout = 30 * time.Second
)

// BaseHost derives the certificate-validation name from a gateway host.
// It keeps everything after the second '.'-delimited boundary from the
// right, so "gateway.pushgate.io" validates as "pushgate.io". Hosts with
// fewer than two dots are used as-is; an empty host falls back to
// FallbackHost.
func BaseHost(host string) string {
	if host == "" {
		return FallbackHost
	}
	last := strings.LastIndexByte(host, '.')
	if last <= 0 {
		return host
	}
	second := strings.LastIndexByte(host[:last], '.')
	if second < 0 {
		return host
	}
	return host[second+1:]
}

// Config configures a gateway Dialer.
type Config struct {
	// TLS contains certificate validation settings.
	TLS *TLSConfig

	// Backend is the secure-transport backend. Nil selects the default
	// crypto/tls backend.
	Backend Backend

	// HandshakeTimeout bounds the connect, TLS and upgrade handshake
	// (default: 30s).
	HandshakeTimeout time.Duration

	// Header is sent with the upgrade request. May be nil.
	Header http.Header

	// Logger receives diagnostic events. Nil disables logging.
	Logger log.Logger
}

// Dialer establishes gateway connections.
type Dialer struct {
	config  Config
	backend Backend
	logger  log.Logger
}

// NewDialer creates a new gateway dialer.
func NewDialer(config Config) *Dialer {
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}

	backend := config.Backend
	if backend == nil {
		backend = &TLSBackend{}
	}

	var logger log.Logger = log.NoopLogger{}
	if config.Logger != nil {
		logger = config.Logger
	}

	return &Dialer{
		config:  config,
		backend: backend,
		logger:  logger,
	}
}

// Connect establishes a secure connection to the gateway at address
// (a ws:// or wss:// URL), validates the peer certificate against the
// configured trust anchors and performs the upgrade handshake.
//
// Failures abort the call entirely; no partial Conn is ever returned.
// Errors are classified: certificate validation failures carry
// KindCertificate, a rejected upgrade carries KindHandshake, and stream
// failures carry KindIO.
func (d *Dialer) Connect(ctx context.Context, address string) (*Conn, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, &Error{Kind: KindIO, Err: fmt.Errorf("invalid gateway address: %w", err)}
	}

	serverName := ""
	if d.config.TLS != nil {
		serverName = d.config.TLS.ServerName
	}
	if serverName == "" {
		serverName = BaseHost(u.Hostname())
	}

	tlsConf, err := NewClientTLSConfig(d.config.TLS, serverName)
	if err != nil {
		return nil, &Error{Kind: KindCertificate, Err: err}
	}

	var tlsState *tls.ConnectionState

	wsDialer := &websocket.Dialer{
		HandshakeTimeout: d.config.HandshakeTimeout,
		NetDialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := d.backend.DialTLS(ctx, network, addr, tlsConf)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*tls.Conn); ok {
				state := tc.ConnectionState()
				tlsState = &state
			}
			return conn, nil
		},
	}

	ws, resp, err := wsDialer.DialContext(ctx, address, d.config.Header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, classify(err)
	}

	return newConn(ws, tlsState, d.logger), nil
}
