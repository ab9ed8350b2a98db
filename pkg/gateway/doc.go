// Package gateway translates between wire frames and decoded payloads.
//
// The Codec wraps an established transport.Conn and exposes receive and
// send of structured values:
//   - Binary frames are zlib-inflated, then parsed as JSON.
//   - Text frames are parsed as JSON directly.
//   - Outbound values are always serialized to a text frame, never
//     compressed.
//
// A payload that fails to parse yields a *DecodeError preserving the raw
// bytes, and a diagnostic event carrying those bytes is emitted to the
// configured sink. A single decode failure does not terminate the
// connection; the caller decides whether to keep reading.
//
// Receipt metadata (wall-clock and monotonic timestamps plus a copy of
// the raw frame) is opt-in via WithReceipts; callers who don't need it
// pay no cost.
//
// Peer close frames follow an explicit policy: CloseTerminal (the
// default) surfaces *transport.CloseError carrying the close code and
// reason, CloseNoMessage reports "no message available" instead.
package gateway
