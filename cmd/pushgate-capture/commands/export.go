package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// RunExport writes the capture file to the specified format. Output goes
// to the named file, or stdout when output is empty.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "conn_id", "direction", "layer", "category", "remote_addr", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		record := []string{
			event.Timestamp.UTC().Format(time.RFC3339Nano),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.RemoteAddr,
			eventDetail(event),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
}

// eventDetail summarizes the type-specific payload in one CSV cell.
func eventDetail(event log.Event) string {
	switch {
	case event.Frame != nil:
		return event.Frame.Kind + " " + strconv.Itoa(event.Frame.Size) + "B"
	case event.Control != nil:
		return event.Control.Kind
	case event.Close != nil:
		if event.Close.Reason != "" {
			return strconv.Itoa(event.Close.Code) + " " + event.Close.Reason
		}
		return strconv.Itoa(event.Close.Code)
	case event.Decode != nil:
		return event.Decode.Message
	case event.Error != nil:
		return event.Error.Message
	default:
		return ""
	}
}
