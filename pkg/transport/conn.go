package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// FrameType tags a wire frame.
type FrameType int

const (
	// FrameText is a text data frame.
	FrameText FrameType = iota + 1

	// FrameBinary is a binary data frame.
	FrameBinary

	// FramePing is a keep-alive probe control frame.
	FramePing

	// FramePong is a keep-alive response control frame.
	FramePong

	// FrameClose is a close control frame.
	FrameClose
)

// String returns the frame type name.
func (t FrameType) String() string {
	switch t {
	case FrameText:
		return "TEXT"
	case FrameBinary:
		return "BINARY"
	case FramePing:
		return "PING"
	case FramePong:
		return "PONG"
	case FrameClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Frame is an atomic unit exchanged over the transport.
type Frame struct {
	Type FrameType
	Data []byte
}

const (
	// frameQueueDepth is the capacity of the inbound frame queue.
	frameQueueDepth = 16

	// controlWriteWait bounds control frame writes from the receive path.
	controlWriteWait = time.Second

	// maxLogFrameDataSize is the maximum frame payload to include in
	// diagnostic events (4 KB). Larger payloads are truncated.
	maxLogFrameDataSize = 4096
)

// Conn is one established gateway session.
//
// A Conn is exclusively owned by one logical caller. Reads support a
// blocking and a polling mode. Ping frames are answered with a matching
// pong inline with the receive path; ping and pong frames never surface
// to the caller. Once a close frame or terminal stream failure has been
// observed the Conn is dead and every further operation fails.
type Conn struct {
	ws       *websocket.Conn
	id       string
	tlsState *tls.ConnectionState
	logger   log.Logger

	frames chan Frame
	done   chan struct{}

	errMu    sync.Mutex
	terminal error

	closeOnce sync.Once
	writeMu   sync.Mutex
}

// newConn wraps an upgraded websocket connection and starts the reader.
func newConn(ws *websocket.Conn, tlsState *tls.ConnectionState, logger log.Logger) *Conn {
	c := &Conn{
		ws:       ws,
		id:       uuid.NewString(),
		tlsState: tlsState,
		logger:   logger,
		frames:   make(chan Frame, frameQueueDepth),
		done:     make(chan struct{}),
	}

	ws.SetPingHandler(c.handlePing)
	ws.SetPongHandler(c.handlePong)
	ws.SetCloseHandler(c.handleClose)

	go c.readLoop()

	return c
}

// ID returns the connection identifier used in diagnostic events.
func (c *Conn) ID() string {
	return c.id
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

// RemoteAddr returns the gateway network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// TLSState returns the TLS connection state of the underlying stream.
// The second return is false when the secure-transport backend did not
// expose one.
func (c *Conn) TLSState() (tls.ConnectionState, bool) {
	if c.tlsState == nil {
		return tls.ConnectionState{}, false
	}
	return *c.tlsState, true
}

// ReadFrame returns the next data frame.
//
// In blocking mode it suspends until a frame arrives or the connection
// fails. In polling mode it returns immediately: ok is false with a nil
// error when nothing is queued. Either mode returns the terminal error
// once the connection is dead; a peer close surfaces as *CloseError.
func (c *Conn) ReadFrame(block bool) (Frame, bool, error) {
	if block {
		f, ok := <-c.frames
		if !ok {
			return Frame{}, false, c.terminalError()
		}
		return f, true, nil
	}

	select {
	case f, ok := <-c.frames:
		if !ok {
			return Frame{}, false, c.terminalError()
		}
		return f, true, nil
	default:
		return Frame{}, false, nil
	}
}

// WriteFrame transmits a frame to the gateway.
func (c *Conn) WriteFrame(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.peekTerminal(); err != nil {
		return err
	}

	var err error
	switch f.Type {
	case FrameText:
		err = c.ws.WriteMessage(websocket.TextMessage, f.Data)
	case FrameBinary:
		err = c.ws.WriteMessage(websocket.BinaryMessage, f.Data)
	case FramePing:
		err = c.ws.WriteControl(websocket.PingMessage, f.Data, time.Now().Add(controlWriteWait))
	case FramePong:
		err = c.ws.WriteControl(websocket.PongMessage, f.Data, time.Now().Add(controlWriteWait))
	case FrameClose:
		err = c.ws.WriteControl(websocket.CloseMessage, f.Data, time.Now().Add(controlWriteWait))
	default:
		return &Error{Kind: KindIO, Err: fmt.Errorf("unknown frame type %d", f.Type)}
	}
	if err != nil {
		return classify(err)
	}

	if f.Type == FrameText || f.Type == FrameBinary {
		c.logFrame(f, log.DirectionOut)
	}

	return nil
}

// Close tears down the underlying stream. A blocked ReadFrame in another
// goroutine is released with an I/O failure. Close is idempotent.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.setTerminal(ErrConnectionClosed)
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// readLoop pumps inbound data frames into the frame queue. Control
// frames are consumed by the handlers installed on the websocket
// connection and never reach the queue.
func (c *Conn) readLoop() {
	defer close(c.frames)

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.setTerminal(classify(err))
			return
		}

		var f Frame
		switch messageType {
		case websocket.TextMessage:
			f = Frame{Type: FrameText, Data: data}
		case websocket.BinaryMessage:
			f = Frame{Type: FrameBinary, Data: data}
		default:
			continue
		}

		c.logFrame(f, log.DirectionIn)

		select {
		case c.frames <- f:
		case <-c.done:
			return
		}
	}
}

// handlePing answers an inbound ping with a pong carrying the identical
// payload before the next message is read. The caller never sees either
// frame.
func (c *Conn) handlePing(appData string) error {
	c.logControl("ping", []byte(appData), log.DirectionIn)

	err := c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlWriteWait))
	if err == websocket.ErrCloseSent {
		return nil
	} else if _, ok := err.(net.Error); ok {
		return nil
	}
	if err == nil {
		c.logControl("pong", []byte(appData), log.DirectionOut)
	}
	return err
}

// handlePong acknowledges an inbound pong. Never surfaced.
func (c *Conn) handlePong(appData string) error {
	c.logControl("pong", []byte(appData), log.DirectionIn)
	return nil
}

// handleClose records the peer close and echoes it, per RFC 6455. The
// subsequent read returns the close error, which classification turns
// into *CloseError.
func (c *Conn) handleClose(code int, text string) error {
	if c.logger != nil {
		c.logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.id,
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryClose,
			RemoteAddr:   c.remoteAddrString(),
			Close:        &log.CloseEvent{Code: code, Reason: text},
		})
	}

	message := websocket.FormatCloseMessage(code, "")
	c.ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(controlWriteWait))
	return nil
}

// setTerminal records the terminal failure. The first failure wins.
func (c *Conn) setTerminal(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.terminal == nil {
		c.terminal = err
	}
}

// peekTerminal returns the terminal failure, or nil while alive.
func (c *Conn) peekTerminal() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.terminal
}

// terminalError returns the terminal failure, defaulting to
// ErrConnectionClosed.
func (c *Conn) terminalError() error {
	if err := c.peekTerminal(); err != nil {
		return err
	}
	return ErrConnectionClosed
}

// logFrame emits a diagnostic event for a data frame.
func (c *Conn) logFrame(f Frame, direction log.Direction) {
	if c.logger == nil {
		return
	}

	kind := "text"
	if f.Type == FrameBinary {
		kind = "binary"
	}

	data := f.Data
	truncated := false
	if len(data) > maxLogFrameDataSize {
		data = data[:maxLogFrameDataSize]
		truncated = true
	}

	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		RemoteAddr:   c.remoteAddrString(),
		Frame: &log.FrameEvent{
			Kind:      kind,
			Size:      len(f.Data),
			Data:      data,
			Truncated: truncated,
		},
	})
}

// logControl emits a diagnostic event for a ping or pong frame.
func (c *Conn) logControl(kind string, payload []byte, direction log.Direction) {
	if c.logger == nil {
		return
	}

	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		RemoteAddr:   c.remoteAddrString(),
		Control:      &log.ControlEvent{Kind: kind, Payload: payload},
	})
}

func (c *Conn) remoteAddrString() string {
	if addr := c.ws.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
