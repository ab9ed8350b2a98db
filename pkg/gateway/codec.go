package gateway

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
	"github.com/pushgate-protocol/pushgate-go/pkg/transport"
)

// ClosePolicy selects how a peer-initiated close frame is reported.
type ClosePolicy int

const (
	// CloseTerminal surfaces a peer close as *transport.CloseError
	// carrying the close code and reason. This is the default.
	CloseTerminal ClosePolicy = iota

	// CloseNoMessage reports a peer close as "no message available".
	// Receives keep reporting no message afterwards; writes still fail
	// because the connection is dead.
	CloseNoMessage
)

// maxLogRawSize is the maximum payload size to include in decode-failure
// diagnostic events (4 KB). Larger payloads are truncated.
const maxLogRawSize = 4096

// Receipt is optional metadata captured when a data frame is received.
type Receipt struct {
	// WallClock is the receipt time on the wall clock.
	WallClock time.Time

	// Monotonic is the receipt time carrying Go's monotonic clock
	// reading, suitable for latency arithmetic.
	Monotonic time.Time

	// Frame is a copy of the raw frame as received (compressed for
	// binary frames).
	Frame transport.Frame
}

// Codec translates between wire frames and structured values over an
// established connection. Like the connection it wraps, a Codec is
// exclusively owned by one logical caller.
type Codec struct {
	conn        *transport.Conn
	logger      log.Logger
	receipts    bool
	closePolicy ClosePolicy
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the diagnostic sink. Nil disables diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithReceipts enables receipt metadata capture.
func WithReceipts(enabled bool) Option {
	return func(c *Codec) {
		c.receipts = enabled
	}
}

// WithClosePolicy sets how peer close frames are reported.
func WithClosePolicy(policy ClosePolicy) Option {
	return func(c *Codec) {
		c.closePolicy = policy
	}
}

// NewCodec creates a Codec over an established connection.
func NewCodec(conn *transport.Conn, opts ...Option) *Codec {
	c := &Codec{
		conn:   conn,
		logger: log.NoopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NoopLogger{}
	}
	return c
}

// Receive returns the next decoded payload.
//
// With block true the call suspends until a frame arrives or the
// connection fails; with block false it returns immediately, reporting
// (nil, nil, nil) when nothing is queued.
//
// When a data frame arrived, the receipt is non-nil if receipt capture
// is enabled. A payload that failed to parse yields a *DecodeError
// alongside the receipt; the connection stays usable. Transport
// failures and (under CloseTerminal) peer closes come back as the
// error with a nil receipt.
func (c *Codec) Receive(block bool) (*Receipt, any, error) {
	frame, ok, err := c.conn.ReadFrame(block)
	if err != nil {
		var closeErr *transport.CloseError
		if errors.As(err, &closeErr) && c.closePolicy == CloseNoMessage {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}

	receipt := c.makeReceipt(frame)

	value, err := c.decode(frame)
	if err != nil {
		return receipt, nil, err
	}
	return receipt, value, nil
}

// Send serializes value to JSON and transmits it as a text frame.
// The outbound path never compresses.
func (c *Codec) Send(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &EncodeError{Err: err}
	}
	return c.conn.WriteFrame(transport.Frame{Type: transport.FrameText, Data: data})
}

// Close tears down the underlying connection.
func (c *Codec) Close() error {
	return c.conn.Close()
}

// decode turns a data frame into a structured value. Binary payloads are
// zlib-inflated first; text payloads parse directly.
func (c *Codec) decode(frame transport.Frame) (any, error) {
	raw := frame.Data

	if frame.Type == transport.FrameBinary {
		inflated, err := inflate(frame.Data)
		if err != nil {
			c.logDecodeFailure(frame, frame.Data, err)
			return nil, &DecodeError{Raw: frame.Data, Err: err}
		}
		raw = inflated
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logDecodeFailure(frame, raw, err)
		return nil, &DecodeError{Raw: raw, Err: err}
	}
	return value, nil
}

// makeReceipt captures receipt metadata when enabled.
func (c *Codec) makeReceipt(frame transport.Frame) *Receipt {
	if !c.receipts {
		return nil
	}

	now := time.Now()
	data := make([]byte, len(frame.Data))
	copy(data, frame.Data)

	return &Receipt{
		WallClock: now.Round(0), // strip the monotonic reading
		Monotonic: now,
		Frame:     transport.Frame{Type: frame.Type, Data: data},
	}
}

// logDecodeFailure emits a diagnostic event preserving the raw payload.
func (c *Codec) logDecodeFailure(frame transport.Frame, raw []byte, err error) {
	kind := "text"
	if frame.Type == transport.FrameBinary {
		kind = "binary"
	}

	data := raw
	truncated := false
	if len(data) > maxLogRawSize {
		data = data[:maxLogRawSize]
		truncated = true
	}

	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.conn.ID(),
		Direction:    log.DirectionIn,
		Layer:        log.LayerCodec,
		Category:     log.CategoryDecode,
		Decode: &log.DecodeErrorEvent{
			Kind:      kind,
			Raw:       data,
			Truncated: truncated,
			Message:   err.Error(),
		},
	})
}

// inflate decompresses a zlib-compressed byte stream.
func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}
