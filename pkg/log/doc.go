// Package log provides structured diagnostic logging for the Pushgate
// gateway transport.
//
// The transport and codec layers emit Events through the Logger interface.
// Applications choose a sink at configuration time:
//   - NoopLogger: discard everything (the default)
//   - SlogAdapter: forward to a log/slog logger for console output
//   - FileLogger: append CBOR-encoded records to a capture file
//   - MultiLogger: fan out to several sinks at once
//
// Capture files written by FileLogger can be read back with Reader,
// optionally filtered by connection, direction, layer or time range.
//
// Events carry the raw frame bytes involved, so a payload that failed to
// decode can always be recovered from the diagnostic stream.
package log
