package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// createTestCaptureFile writes the events to a capture file and returns
// its path.
func createTestCaptureFile(t *testing.T, events []log.Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create capture file: %v", err)
	}
	for _, event := range events {
		logger.Log(event)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close capture file: %v", err)
	}

	return path
}

func testEvents() []log.Event {
	ts := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "aaaaaaaa-1111-2222-3333-444444444444",
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryFrame,
			Frame:        &log.FrameEvent{Kind: "text", Size: 8, Data: []byte(`{"op":1}`)},
		},
		{
			Timestamp:    ts.Add(time.Second),
			ConnectionID: "aaaaaaaa-1111-2222-3333-444444444444",
			Direction:    log.DirectionOut,
			Layer:        log.LayerTransport,
			Category:     log.CategoryControl,
			Control:      &log.ControlEvent{Kind: "pong", Payload: []byte("ka")},
		},
		{
			Timestamp:    ts.Add(2 * time.Second),
			ConnectionID: "bbbbbbbb-1111-2222-3333-444444444444",
			Direction:    log.DirectionIn,
			Layer:        log.LayerCodec,
			Category:     log.CategoryDecode,
			Decode:       &log.DecodeErrorEvent{Kind: "binary", Raw: []byte(`{invalid`), Message: "unexpected token"},
		},
		{
			Timestamp:    ts.Add(3 * time.Second),
			ConnectionID: "bbbbbbbb-1111-2222-3333-444444444444",
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryClose,
			Close:        &log.CloseEvent{Code: 4000, Reason: "gone"},
		},
	}
}

func TestViewFormatsEvents(t *testing.T) {
	path := createTestCaptureFile(t, testEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"[conn:aaaaaaaa]",
		"IN  TRANSPORT Frame",
		`Data: {"op":1}`,
		"OUT TRANSPORT Control",
		"IN  CODEC Decode",
		"Error: unexpected token",
		"Code: 4000",
		"Reason: gone",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestViewFilterByCategory(t *testing.T) {
	path := createTestCaptureFile(t, testEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Category: "decode"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Decode") {
		t.Error("expected the decode event in output")
	}
	if strings.Contains(output, "Frame") || strings.Contains(output, "Control") {
		t.Errorf("expected only decode events, got:\n%s", output)
	}
}

func TestViewInvalidFilter(t *testing.T) {
	path := createTestCaptureFile(t, nil)

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Direction: "sideways"}, &buf); err == nil {
		t.Error("expected an invalid direction to be rejected")
	}
	if err := RunView(path, FilterOptions{TimeStart: "yesterday"}, &buf); err == nil {
		t.Error("expected an invalid time to be rejected")
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestCaptureFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", output); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data := readFile(t, output)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 JSONL lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "aaaaaaaa-1111") {
		t.Errorf("unexpected first line: %s", lines[0])
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestCaptureFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", output); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data := readFile(t, output)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != 5 { // header + 4 events
		t.Fatalf("expected 5 CSV lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,conn_id,direction") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "text 8B") {
		t.Errorf("unexpected CSV record: %s", lines[1])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestCaptureFile(t, nil)
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected an unknown format to be rejected")
	}
}

func TestFilterWritesNewCapture(t *testing.T) {
	path := createTestCaptureFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "filtered.cbor")

	err := RunFilter(path, output, FilterOptions{ConnID: "bbbbbbbb-1111-2222-3333-444444444444"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(output)
	if err != nil {
		t.Fatalf("failed to open filtered file: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		if event.ConnectionID != "bbbbbbbb-1111-2222-3333-444444444444" {
			t.Errorf("unexpected connection ID %s", event.ConnectionID)
		}
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 filtered events, got %d", count)
	}
}

func TestFilterRequiresOutput(t *testing.T) {
	path := createTestCaptureFile(t, nil)

	if err := RunFilter(path, "", FilterOptions{}); err == nil {
		t.Error("expected a missing output file to be rejected")
	}
	if err := RunFilter(path, path, FilterOptions{}); err == nil {
		t.Error("expected output == input to be rejected")
	}
}

func TestStats(t *testing.T) {
	path := createTestCaptureFile(t, testEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Total events: 4",
		"TRANSPORT: 3",
		"CODEC: 1",
		"FRAME: 1",
		"DECODE: 1",
		"Decode failures: 1",
		"Connections: 2",
		"closed with 4000",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestCaptureFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
