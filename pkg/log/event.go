package log

import (
	"time"
)

// Event represents a diagnostic event captured at the transport or codec
// layer. CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the gateway connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the gateway address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame   *FrameEvent       `cbor:"10,keyasint,omitempty"` // Data frames
	Control *ControlEvent     `cbor:"11,keyasint,omitempty"` // Ping/pong
	Close   *CloseEvent       `cbor:"12,keyasint,omitempty"` // Peer close
	Decode  *DecodeErrorEvent `cbor:"13,keyasint,omitempty"` // Payload decode failures
	Error   *ErrorEvent       `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates an inbound frame.
	DirectionIn Direction = 0
	// DirectionOut indicates an outbound frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the connection and frame layer.
	LayerTransport Layer = 0
	// LayerCodec is the payload encode/decode layer.
	LayerCodec Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerCodec:
		return "CODEC"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a data frame (text or binary).
	CategoryFrame Category = 0
	// CategoryControl indicates a control frame (ping/pong).
	CategoryControl Category = 1
	// CategoryClose indicates a peer-initiated close.
	CategoryClose Category = 2
	// CategoryDecode indicates a payload decode failure.
	CategoryDecode Category = 3
	// CategoryError indicates a transport or codec error.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryControl:
		return "CONTROL"
	case CategoryClose:
		return "CLOSE"
	case CategoryDecode:
		return "DECODE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a data frame at the transport layer.
type FrameEvent struct {
	// Kind is the wire frame kind ("text" or "binary").
	Kind string `cbor:"1,keyasint"`

	// Size is the payload size in bytes.
	Size int `cbor:"2,keyasint"`

	// Data is the raw payload (may be truncated for large frames).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// ControlEvent captures a ping or pong control frame.
type ControlEvent struct {
	// Kind is "ping" or "pong".
	Kind string `cbor:"1,keyasint"`

	// Payload is the control frame application data.
	Payload []byte `cbor:"2,keyasint,omitempty"`
}

// CloseEvent captures a peer-initiated close frame.
type CloseEvent struct {
	// Code is the close status code.
	Code int `cbor:"1,keyasint"`

	// Reason is the optional close reason text.
	Reason string `cbor:"2,keyasint,omitempty"`
}

// DecodeErrorEvent captures a payload that failed to decode. The raw bytes are
// preserved so the offending payload can be inspected after the fact.
type DecodeErrorEvent struct {
	// Kind is the wire frame kind that carried the payload.
	Kind string `cbor:"1,keyasint"`

	// Raw is the payload bytes as received (post-inflate for binary frames,
	// may be truncated for large payloads).
	Raw []byte `cbor:"2,keyasint"`

	// Truncated indicates if Raw was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Message is the decoder error message.
	Message string `cbor:"4,keyasint"`
}

// ErrorEvent captures errors at any layer.
type ErrorEvent struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
