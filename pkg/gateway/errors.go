package gateway

import (
	"fmt"
)

// DecodeError reports a payload that failed to parse as a structured
// value. For binary frames Raw holds the bytes after inflation, unless
// inflation itself failed, in which case it holds the compressed bytes
// as received.
type DecodeError struct {
	// Raw is the offending payload, preserved for diagnosis.
	Raw []byte

	// Err is the underlying decoder error.
	Err error
}

// Error returns the failure description.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a value that failed to serialize for sending.
type EncodeError struct {
	// Err is the underlying serializer error.
	Err error
}

// Error returns the failure description.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("payload not serializable: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *EncodeError) Unwrap() error {
	return e.Err
}
