package commands

import (
	"fmt"
	"io"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// RunFilter copies matching events from the capture file into a new
// capture file at output.
func RunFilter(path, output string, opts FilterOptions) error {
	if output == "" {
		return fmt.Errorf("output file is required")
	}
	if output == path {
		return fmt.Errorf("output must differ from the input file")
	}

	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	writer, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer writer.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		writer.Log(event)
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, output)
	return nil
}
