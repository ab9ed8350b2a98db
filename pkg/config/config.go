// Package config loads Pushgate client configuration from YAML and
// assembles the transport and codec settings it describes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pushgate-protocol/pushgate-go/pkg/gateway"
	"github.com/pushgate-protocol/pushgate-go/pkg/log"
	"github.com/pushgate-protocol/pushgate-go/pkg/transport"
	"github.com/pushgate-protocol/pushgate-go/pkg/trust"
)

// Close policy names accepted in configuration.
const (
	ClosePolicyTerminal  = "terminal"
	ClosePolicyNoMessage = "no_message"
)

// Duration wraps time.Duration with YAML string parsing ("30s", "1m").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the YAML client configuration.
type Config struct {
	// URL is the gateway address (wss://host/path).
	URL string `yaml:"url"`

	// Backend selects the secure-transport backend by name.
	// Empty selects "tls" (crypto/tls).
	Backend string `yaml:"backend"`

	// ServerName overrides the certificate-validation name derived from
	// the gateway host.
	ServerName string `yaml:"server_name"`

	// TrustAnchors lists PEM bundles with trust anchors.
	// Empty means the system root store.
	TrustAnchors []string `yaml:"trust_anchors"`

	// InsecureSkipVerify disables certificate validation.
	// Only for testing - never use in production!
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// HandshakeTimeout bounds connect, TLS and upgrade together
	// (default: 30s).
	HandshakeTimeout Duration `yaml:"handshake_timeout"`

	// Receipts enables receipt metadata capture on received payloads.
	Receipts bool `yaml:"receipts"`

	// ClosePolicy is "terminal" (default) or "no_message".
	ClosePolicy string `yaml:"close_policy"`

	// CaptureFile is the path of the CBOR diagnostic capture file.
	// Empty disables file capture.
	CaptureFile string `yaml:"capture_file"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Backend != "" {
		if _, ok := transport.BackendByName(c.Backend); !ok {
			return fmt.Errorf("unknown backend %q (have: %v)", c.Backend, transport.BackendNames())
		}
	}
	switch c.ClosePolicy {
	case "", ClosePolicyTerminal, ClosePolicyNoMessage:
	default:
		return fmt.Errorf("unknown close policy %q", c.ClosePolicy)
	}
	return nil
}

// TrustStore assembles the trust-anchor source described by the
// configuration. Returns nil when the system root store should be used.
func (c *Config) TrustStore() (trust.Store, error) {
	if len(c.TrustAnchors) == 0 {
		return nil, nil
	}

	store := trust.NewMemoryStore()
	for _, path := range c.TrustAnchors {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read trust anchors: %w", err)
		}
		if err := store.AddPEM(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return store, nil
}

// DialerConfig assembles the transport configuration. The logger is
// passed through to the transport layer.
func (c *Config) DialerConfig(logger log.Logger) (transport.Config, error) {
	store, err := c.TrustStore()
	if err != nil {
		return transport.Config{}, err
	}

	var backend transport.Backend
	if c.Backend != "" {
		backend, _ = transport.BackendByName(c.Backend)
	}

	return transport.Config{
		TLS: &transport.TLSConfig{
			Trust:              store,
			ServerName:         c.ServerName,
			InsecureSkipVerify: c.InsecureSkipVerify,
		},
		Backend:          backend,
		HandshakeTimeout: time.Duration(c.HandshakeTimeout),
		Logger:           logger,
	}, nil
}

// CodecOptions assembles the codec options described by the
// configuration.
func (c *Config) CodecOptions(logger log.Logger) []gateway.Option {
	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithReceipts(c.Receipts),
	}
	if c.ClosePolicy == ClosePolicyNoMessage {
		opts = append(opts, gateway.WithClosePolicy(gateway.CloseNoMessage))
	}
	return opts
}

// BuildLogger assembles the diagnostic sink described by the
// configuration, combining the optional capture file with extra sinks.
// The returned closer is nil when no capture file is open.
func (c *Config) BuildLogger(extra ...log.Logger) (log.Logger, *log.FileLogger, error) {
	sinks := make([]log.Logger, 0, len(extra)+1)
	sinks = append(sinks, extra...)

	var capture *log.FileLogger
	if c.CaptureFile != "" {
		fl, err := log.NewFileLogger(c.CaptureFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open capture file: %w", err)
		}
		capture = fl
		sinks = append(sinks, fl)
	}

	switch len(sinks) {
	case 0:
		return log.NoopLogger{}, nil, nil
	case 1:
		return sinks[0], capture, nil
	default:
		return log.NewMultiLogger(sinks...), capture, nil
	}
}
