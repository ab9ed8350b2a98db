package trust

import (
	"crypto/x509"
	"errors"
)

// Store errors.
var (
	ErrNoAnchors   = errors.New("no trust anchors")
	ErrInvalidPEM  = errors.New("invalid PEM data")
	ErrInvalidCert = errors.New("invalid certificate")
)

// Store defines a source of trust anchors.
// Implementations must be safe for concurrent access.
type Store interface {
	// Pool returns the certificate pool of trust anchors.
	// Returns ErrNoAnchors if the store holds nothing to trust.
	Pool() (*x509.CertPool, error)
}

// SystemStore yields the operating system root store.
// SystemStore is usable as a zero value.
type SystemStore struct{}

// Pool returns the system certificate pool.
func (SystemStore) Pool() (*x509.CertPool, error) {
	return x509.SystemCertPool()
}

// Compile-time interface satisfaction check.
var _ Store = SystemStore{}
