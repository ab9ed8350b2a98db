// Package transport establishes and manages the secure gateway connection.
//
// The transport layer handles:
//   - TLS connections validated against a configurable trust-anchor source
//   - The WebSocket upgrade handshake
//   - Blocking and polling frame reads over a single established session
//   - Inline ping/pong keep-alive obligations
//   - Classification of failures into a closed error taxonomy
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      JSON Payloads             │
//	├────────────────────────────────┤
//	│   WebSocket Frames (RFC 6455)  │
//	├────────────────────────────────┤
//	│         TLS                    │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Ownership
//
// A Conn represents exactly one established session and is exclusively
// owned by one logical caller. The transport performs no locking across
// concurrent receivers; the owner enforces exclusivity. A blocking read
// can be interrupted by closing the Conn from another goroutine, which
// surfaces an I/O failure to the reader.
//
// # Error Taxonomy
//
// Every fallible path reports one of:
//   - Error with KindCertificate: peer certificate failed validation
//   - Error with KindHandshake: the upgrade handshake was rejected
//   - Error with KindIO: underlying stream failure
//   - CloseError: the peer sent a close frame (code and reason attached)
//
// Callers branch on kind with errors.As; message text is never part of
// the contract.
package transport
