package trust

import (
	"crypto/x509"
	"encoding/pem"
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface.
// This is useful for tests and for pinning a fixed anchor set.
type MemoryStore struct {
	mu      sync.RWMutex
	anchors []*x509.Certificate
}

// NewMemoryStore creates a new in-memory trust-anchor store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddCert adds a parsed certificate as a trust anchor.
func (s *MemoryStore) AddCert(cert *x509.Certificate) error {
	if cert == nil {
		return ErrInvalidCert
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.anchors = append(s.anchors, cert)
	return nil
}

// AddPEM parses PEM data and adds every CERTIFICATE block as a trust
// anchor. Returns ErrInvalidPEM if no certificate could be parsed.
func (s *MemoryStore) AddPEM(data []byte) error {
	var added []*x509.Certificate

	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return ErrInvalidPEM
		}
		added = append(added, cert)
	}

	if len(added) == 0 {
		return ErrInvalidPEM
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.anchors = append(s.anchors, added...)
	return nil
}

// Anchors returns a copy of the stored anchor certificates.
func (s *MemoryStore) Anchors() []*x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anchors := make([]*x509.Certificate, len(s.anchors))
	copy(anchors, s.anchors)
	return anchors
}

// Count returns the number of stored anchors.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.anchors)
}

// Pool returns a certificate pool holding all stored anchors.
func (s *MemoryStore) Pool() (*x509.CertPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.anchors) == 0 {
		return nil, ErrNoAnchors
	}

	pool := x509.NewCertPool()
	for _, cert := range s.anchors {
		pool.AddCert(cert)
	}
	return pool, nil
}

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)
