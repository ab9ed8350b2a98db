// Package trust supplies trust anchors for gateway certificate validation.
//
// A Store yields the x509.CertPool the transport validates the gateway
// certificate against. Three implementations are provided:
//   - SystemStore: the operating system root store (the default)
//   - MemoryStore: anchors held in memory, useful for tests and pinning
//   - FileStore: anchors persisted as a PEM bundle on disk
package trust
