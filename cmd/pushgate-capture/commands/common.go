// Package commands implements the pushgate-capture CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// FilterOptions specifies event selection criteria shared by the view
// and filter commands. Empty fields match everything.
type FilterOptions struct {
	ConnID    string
	Direction string
	Layer     string
	Category  string
	TimeStart string
	TimeEnd   string
}

// buildFilter translates the string options into a log.Filter.
func buildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{ConnectionID: opts.ConnID}

	if opts.Direction != "" {
		switch strings.ToLower(opts.Direction) {
		case "in":
			d := log.DirectionIn
			filter.Direction = &d
		case "out":
			d := log.DirectionOut
			filter.Direction = &d
		default:
			return log.Filter{}, fmt.Errorf("invalid direction %q (in, out)", opts.Direction)
		}
	}

	if opts.Layer != "" {
		switch strings.ToLower(opts.Layer) {
		case "transport":
			l := log.LayerTransport
			filter.Layer = &l
		case "codec":
			l := log.LayerCodec
			filter.Layer = &l
		default:
			return log.Filter{}, fmt.Errorf("invalid layer %q (transport, codec)", opts.Layer)
		}
	}

	if opts.Category != "" {
		switch strings.ToLower(opts.Category) {
		case "frame":
			c := log.CategoryFrame
			filter.Category = &c
		case "control":
			c := log.CategoryControl
			filter.Category = &c
		case "close":
			c := log.CategoryClose
			filter.Category = &c
		case "decode":
			c := log.CategoryDecode
			filter.Category = &c
		case "error":
			c := log.CategoryError
			filter.Category = &c
		default:
			return log.Filter{}, fmt.Errorf("invalid category %q (frame, control, close, decode, error)", opts.Category)
		}
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
