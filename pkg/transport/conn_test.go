package transport_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
	"github.com/pushgate-protocol/pushgate-go/pkg/transport"
)

// captureLogger records diagnostic events for assertions.
type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *captureLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *captureLogger) snapshot() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

// startGateway starts a plaintext test server that upgrades every
// request and hands the server side of the connection to handler.
func startGateway(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		if handler != nil {
			handler(ws)
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + ts.URL[len("http"):]
}

func dialGateway(t *testing.T, ts *httptest.Server, cfg transport.Config) *transport.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := transport.NewDialer(cfg).Connect(ctx, wsURL(ts))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

type readResult struct {
	frame transport.Frame
	ok    bool
	err   error
}

// readBlocking runs a blocking ReadFrame with a test timeout.
func readBlocking(t *testing.T, conn *transport.Conn) readResult {
	t.Helper()

	results := make(chan readResult, 1)
	go func() {
		f, ok, err := conn.ReadFrame(true)
		results <- readResult{f, ok, err}
	}()

	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("blocking ReadFrame did not return")
		return readResult{}
	}
}

func TestReadWriteFrames(t *testing.T) {
	ts := startGateway(t, func(ws *websocket.Conn) {
		for {
			mt, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if err := ws.WriteMessage(mt, data); err != nil {
				return
			}
		}
	})

	logger := &captureLogger{}
	conn := dialGateway(t, ts, transport.Config{Logger: logger})

	if err := conn.WriteFrame(transport.Frame{Type: transport.FrameText, Data: []byte("hello")}); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	r := readBlocking(t, conn)
	if r.err != nil || !r.ok {
		t.Fatalf("ReadFrame failed: ok=%v err=%v", r.ok, r.err)
	}
	if r.frame.Type != transport.FrameText || string(r.frame.Data) != "hello" {
		t.Errorf("unexpected frame: %v %q", r.frame.Type, r.frame.Data)
	}

	if err := conn.WriteFrame(transport.Frame{Type: transport.FrameBinary, Data: []byte{1, 2, 3}}); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	r = readBlocking(t, conn)
	if r.err != nil || !r.ok {
		t.Fatalf("ReadFrame failed: ok=%v err=%v", r.ok, r.err)
	}
	if r.frame.Type != transport.FrameBinary || !bytes.Equal(r.frame.Data, []byte{1, 2, 3}) {
		t.Errorf("unexpected frame: %v %v", r.frame.Type, r.frame.Data)
	}

	var in, out int
	for _, event := range logger.snapshot() {
		if event.Category != log.CategoryFrame {
			continue
		}
		switch event.Direction {
		case log.DirectionIn:
			in++
		case log.DirectionOut:
			out++
		}
	}
	if in != 2 || out != 2 {
		t.Errorf("expected 2 inbound and 2 outbound frame events, got %d/%d", in, out)
	}
}

func TestReadFramePolling(t *testing.T) {
	release := make(chan struct{})
	ts := startGateway(t, func(ws *websocket.Conn) {
		<-release
		ws.WriteMessage(websocket.TextMessage, []byte("late"))
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn := dialGateway(t, ts, transport.Config{})

	// Nothing queued: the poll must return immediately without error.
	f, ok, err := conn.ReadFrame(false)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no message, got %v %q", f.Type, f.Data)
	}

	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for {
		f, ok, err = conn.ReadFrame(false)
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("frame never became available")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if string(f.Data) != "late" {
		t.Errorf("unexpected frame payload %q", f.Data)
	}
}

func TestPingAnsweredWithMatchingPong(t *testing.T) {
	const payload = "keepalive-7"

	pongs := make(chan string, 1)
	ts := startGateway(t, func(ws *websocket.Conn) {
		ws.SetPongHandler(func(appData string) error {
			select {
			case pongs <- appData:
			default:
			}
			return nil
		})

		if err := ws.WriteControl(websocket.PingMessage, []byte(payload), time.Now().Add(time.Second)); err != nil {
			return
		}

		// Read until the pong handler has fired, then send a data frame.
		go func() {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		select {
		case got := <-pongs:
			pongs <- got
		case <-time.After(5 * time.Second):
			return
		}
		ws.WriteMessage(websocket.TextMessage, []byte("after"))

		time.Sleep(100 * time.Millisecond)
	})

	logger := &captureLogger{}
	conn := dialGateway(t, ts, transport.Config{Logger: logger})

	// The ping never surfaces: the first frame the caller sees is the
	// data frame sent after the gateway observed the pong.
	r := readBlocking(t, conn)
	if r.err != nil || !r.ok {
		t.Fatalf("ReadFrame failed: ok=%v err=%v", r.ok, r.err)
	}
	if string(r.frame.Data) != "after" {
		t.Errorf("unexpected frame payload %q", r.frame.Data)
	}

	select {
	case got := <-pongs:
		if got != payload {
			t.Errorf("pong payload %q, want %q", got, payload)
		}
	default:
		t.Error("gateway never received the pong")
	}

	var sawPing, sawPong bool
	for _, event := range logger.snapshot() {
		if event.Category != log.CategoryControl || event.Control == nil {
			continue
		}
		switch {
		case event.Control.Kind == "ping" && event.Direction == log.DirectionIn:
			sawPing = true
		case event.Control.Kind == "pong" && event.Direction == log.DirectionOut:
			sawPong = true
		}
	}
	if !sawPing || !sawPong {
		t.Errorf("expected ping/pong diagnostic events, got ping=%v pong=%v", sawPing, sawPong)
	}
}

func TestPeerClose(t *testing.T) {
	ts := startGateway(t, func(ws *websocket.Conn) {
		message := websocket.FormatCloseMessage(4001, "session expired")
		ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		// Wait for the close echo.
		ws.ReadMessage()
	})

	conn := dialGateway(t, ts, transport.Config{})

	r := readBlocking(t, conn)
	if r.ok {
		t.Fatalf("expected no frame, got %v %q", r.frame.Type, r.frame.Data)
	}

	var closeErr *transport.CloseError
	if !errors.As(r.err, &closeErr) {
		t.Fatalf("expected *CloseError, got %v", r.err)
	}
	if closeErr.Code != 4001 || closeErr.Reason != "session expired" {
		t.Errorf("unexpected close error: %v", closeErr)
	}

	// The connection is dead: further reads report the same failure and
	// writes fail.
	r = readBlocking(t, conn)
	if !errors.As(r.err, &closeErr) {
		t.Errorf("expected *CloseError on repeat read, got %v", r.err)
	}
	if err := conn.WriteFrame(transport.Frame{Type: transport.FrameText, Data: []byte("{}")}); err == nil {
		t.Error("expected write on dead connection to fail")
	}
}

func TestCloseReleasesBlockedRead(t *testing.T) {
	ts := startGateway(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn := dialGateway(t, ts, transport.Config{})

	results := make(chan readResult, 1)
	go func() {
		f, ok, err := conn.ReadFrame(true)
		results <- readResult{f, ok, err}
	}()

	// Give the reader a moment to block.
	time.Sleep(50 * time.Millisecond)
	conn.Close()

	select {
	case r := <-results:
		if r.ok {
			t.Errorf("expected no frame, got %v", r.frame)
		}
		if r.err == nil {
			t.Error("expected the released read to fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not release the blocked read")
	}
}

func TestOperationsAfterClose(t *testing.T) {
	ts := startGateway(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn := dialGateway(t, ts, transport.Config{})

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := conn.WriteFrame(transport.Frame{Type: transport.FrameText, Data: []byte("{}")}); !errors.Is(err, transport.ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}

	r := readBlocking(t, conn)
	if r.ok || r.err == nil {
		t.Errorf("expected read on closed connection to fail, got ok=%v err=%v", r.ok, r.err)
	}

	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Errorf("repeated Close failed: %v", err)
	}
}

func TestWriteUnknownFrameType(t *testing.T) {
	ts := startGateway(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn := dialGateway(t, ts, transport.Config{})

	err := conn.WriteFrame(transport.Frame{Type: transport.FrameType(42)})
	if !transport.IsKind(err, transport.KindIO) {
		t.Errorf("expected KindIO, got %v", err)
	}
}
