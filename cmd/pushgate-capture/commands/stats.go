package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pushgate-protocol/pushgate-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	DecodeFailures    int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	BytesIn   int
	BytesOut  int
	CloseCode int
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	stats.print(w)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if event.Category == log.CategoryDecode {
		s.DecodeFailures++
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	conn := s.Connections[event.ConnectionID]
	if conn == nil {
		conn = &ConnectionStats{FirstSeen: event.Timestamp}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.Before(conn.FirstSeen) {
		conn.FirstSeen = event.Timestamp
	}
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if event.Frame != nil {
		switch event.Direction {
		case log.DirectionIn:
			conn.BytesIn += event.Frame.Size
		case log.DirectionOut:
			conn.BytesOut += event.Frame.Size
		}
	}
	if event.Close != nil {
		conn.CloseCode = event.Close.Code
	}
}

func (s *Stats) print(w io.Writer) {
	fmt.Fprintf(w, "Total events: %d\n", s.TotalEvents)
	if s.TotalEvents == 0 {
		return
	}

	fmt.Fprintf(w, "Time range: %s - %s (%s)\n",
		s.TimeRange.Start.UTC().Format(time.RFC3339),
		s.TimeRange.End.UTC().Format(time.RFC3339),
		s.TimeRange.End.Sub(s.TimeRange.Start).Round(time.Millisecond))

	fmt.Fprintln(w, "\nBy layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerCodec} {
		if count := s.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %s: %d\n", layer, count)
		}
	}

	fmt.Fprintln(w, "\nBy category:")
	categories := []log.Category{
		log.CategoryFrame, log.CategoryControl, log.CategoryClose,
		log.CategoryDecode, log.CategoryError,
	}
	for _, category := range categories {
		if count := s.EventsByCategory[category]; count > 0 {
			fmt.Fprintf(w, "  %s: %d\n", category, count)
		}
	}

	fmt.Fprintln(w, "\nBy direction:")
	for _, direction := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := s.EventsByDirection[direction]; count > 0 {
			fmt.Fprintf(w, "  %s: %d\n", direction, count)
		}
	}

	if s.DecodeFailures > 0 {
		fmt.Fprintf(w, "\nDecode failures: %d\n", s.DecodeFailures)
	}

	connIDs := make([]string, 0, len(s.Connections))
	for id := range s.Connections {
		connIDs = append(connIDs, id)
	}
	sort.Strings(connIDs)

	fmt.Fprintf(w, "\nConnections: %d\n", len(connIDs))
	for _, id := range connIDs {
		conn := s.Connections[id]
		fmt.Fprintf(w, "  %s: %d events, %dB in, %dB out, active %s",
			shortenConnID(id), conn.Events, conn.BytesIn, conn.BytesOut,
			conn.LastSeen.Sub(conn.FirstSeen).Round(time.Millisecond))
		if conn.CloseCode != 0 {
			fmt.Fprintf(w, ", closed with %d", conn.CloseCode)
		}
		fmt.Fprintln(w)
	}
}
