package trust

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// FileStore is a Store backed by a PEM bundle on disk.
// Anchors are held in memory after Load; Save writes them back.
type FileStore struct {
	path string
	mem  *MemoryStore
}

// NewFileStore creates a FileStore for the given PEM bundle path.
// Call Load before first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		mem:  NewMemoryStore(),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the PEM bundle from disk, replacing any anchors held so far.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read trust anchors: %w", err)
	}

	mem := NewMemoryStore()
	if err := mem.AddPEM(data); err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}

	s.mem = mem
	return nil
}

// Save writes the held anchors back to disk as a PEM bundle.
// The file is created with permissions 0644 if it doesn't exist.
func (s *FileStore) Save() error {
	var out []byte
	for _, cert := range s.mem.Anchors() {
		out = append(out, pem.EncodeToMemory(&pem.Block{
			Type:  "CERTIFICATE",
			Bytes: cert.Raw,
		})...)
	}

	if err := os.WriteFile(s.path, out, 0644); err != nil {
		return fmt.Errorf("failed to write trust anchors: %w", err)
	}
	return nil
}

// AddCert adds a parsed certificate as a trust anchor.
// The anchor is not persisted until Save is called.
func (s *FileStore) AddCert(cert *x509.Certificate) error {
	return s.mem.AddCert(cert)
}

// Count returns the number of held anchors.
func (s *FileStore) Count() int {
	return s.mem.Count()
}

// Pool returns a certificate pool holding all loaded anchors.
func (s *FileStore) Pool() (*x509.CertPool, error) {
	return s.mem.Pool()
}

// Compile-time interface satisfaction check.
var _ Store = (*FileStore)(nil)
