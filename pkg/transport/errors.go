package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed indicates an operation on a dead connection.
var ErrConnectionClosed = errors.New("connection closed")

// ErrorKind identifies the class of a transport failure.
type ErrorKind int

const (
	// KindIO indicates an underlying stream failure during connect,
	// read or write.
	KindIO ErrorKind = iota

	// KindCertificate indicates the peer certificate or hostname failed
	// validation before the upgrade handshake.
	KindCertificate

	// KindHandshake indicates the upgrade handshake was rejected by the peer.
	KindHandshake
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "IO"
	case KindCertificate:
		return "CERTIFICATE"
	case KindHandshake:
		return "HANDSHAKE"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified transport failure. Callers branch on Kind rather
// than inspecting message text.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error returns the failure description.
func (e *Error) Error() string {
	switch e.Kind {
	case KindCertificate:
		return fmt.Sprintf("certificate validation failed: %v", e.Err)
	case KindHandshake:
		return fmt.Sprintf("upgrade handshake failed: %v", e.Err)
	default:
		return fmt.Sprintf("transport failure: %v", e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CloseError reports a peer-initiated close frame.
type CloseError struct {
	// Code is the close status code sent by the peer.
	Code int

	// Reason is the optional close reason text.
	Reason string
}

// Error returns the close description.
func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("peer closed connection (code %d)", e.Code)
	}
	return fmt.Sprintf("peer closed connection (code %d): %s", e.Code, e.Reason)
}

// IsKind reports whether err is a transport Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}

// classify maps an underlying failure into the transport error taxonomy.
// Already-classified errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		return te
	}
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce
	}

	// Peer close frames surface from reads as websocket close errors.
	var wsClose *websocket.CloseError
	if errors.As(err, &wsClose) {
		return &CloseError{Code: wsClose.Code, Reason: wsClose.Text}
	}

	if isCertificateError(err) {
		return &Error{Kind: KindCertificate, Err: err}
	}

	// The upgrade handshake was answered with something other than 101.
	if errors.Is(err, websocket.ErrBadHandshake) {
		return &Error{Kind: KindHandshake, Err: err}
	}

	return &Error{Kind: KindIO, Err: err}
}

// isCertificateError reports whether err stems from peer certificate or
// hostname validation.
func isCertificateError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		unknownAuth  x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		sysRootsErr  x509.SystemRootsError
		insecureAlgo x509.InsecureAlgorithmError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &sysRootsErr) ||
		errors.As(err, &insecureAlgo)
}
