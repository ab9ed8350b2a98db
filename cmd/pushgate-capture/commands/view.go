package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// RunView prints matching events from the capture file in a
// human-readable format.
func RunView(path string, opts FilterOptions, w io.Writer) error {
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Control != nil:
		typeLabel = "Control"
	case event.Close != nil:
		typeLabel = "Close"
	case event.Decode != nil:
		typeLabel = "Decode"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction, event.Layer, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Control != nil:
		fmt.Fprintf(w, "  Kind: %s\n", event.Control.Kind)
		if len(event.Control.Payload) > 0 {
			fmt.Fprintf(w, "  Payload: %s\n", formatPayload(event.Control.Payload))
		}
	case event.Close != nil:
		fmt.Fprintf(w, "  Code: %d\n", event.Close.Code)
		if event.Close.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", event.Close.Reason)
		}
	case event.Decode != nil:
		fmt.Fprintf(w, "  Kind: %s\n", event.Decode.Kind)
		fmt.Fprintf(w, "  Error: %s\n", event.Decode.Message)
		fmt.Fprintf(w, "  Raw: %s", formatPayload(event.Decode.Raw))
		if event.Decode.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		fmt.Fprintf(w, "  Error: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w)
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Kind: %s\n", frame.Kind)
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", formatPayload(frame.Data))
		if frame.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatPayload renders printable payloads as text and everything else
// as hex.
func formatPayload(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return hex.EncodeToString(data)
}
