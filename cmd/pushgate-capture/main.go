// Command pushgate-capture is a tool for viewing and analyzing Pushgate
// diagnostic capture files.
//
// Capture files are created by configuring a capture_file in the client
// configuration or via pushgate-probe -capture.
//
// Usage:
//
//	pushgate-capture <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	pushgate-capture view session.cbor
//
//	# View only decode failures
//	pushgate-capture view -category decode session.cbor
//
//	# Export to JSONL
//	pushgate-capture export -format jsonl session.cbor
//
//	# Filter by connection and save to new file
//	pushgate-capture filter -conn-id abc12345 -o filtered.cbor session.cbor
//
//	# Show statistics
//	pushgate-capture stats session.cbor
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pushgate-protocol/pushgate-go/cmd/pushgate-capture/commands"
)

const usage = `pushgate-capture - Pushgate Capture File Analyzer

Usage:
  pushgate-capture <command> [flags] <file.cbor>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "pushgate-capture <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// filterFlags registers the shared selection flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.ConnID, "conn-id", "", "filter by connection ID")
	fs.StringVar(&opts.Direction, "direction", "", "filter by direction (in, out)")
	fs.StringVar(&opts.Layer, "layer", "", "filter by layer (transport, codec)")
	fs.StringVar(&opts.Category, "category", "", "filter by category (frame, control, close, decode, error)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "events at or after this RFC 3339 time")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "events before this RFC 3339 time")
	return opts
}

// captureFile returns the single positional capture-file argument.
func captureFile(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one capture file argument")
	}
	return fs.Arg(0), nil
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	opts := filterFlags(fs)
	fs.Parse(args)

	path, err := captureFile(fs)
	if err != nil {
		return err
	}
	return commands.RunView(path, *opts, os.Stdout)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "jsonl", "output format (jsonl, csv)")
	output := fs.String("o", "", "output file (default: stdout)")
	fs.Parse(args)

	path, err := captureFile(fs)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output)
}

func runFilter(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	opts := filterFlags(fs)
	output := fs.String("o", "", "output capture file (required)")
	fs.Parse(args)

	path, err := captureFile(fs)
	if err != nil {
		return err
	}
	return commands.RunFilter(path, *output, *opts)
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	path, err := captureFile(fs)
	if err != nil {
		return err
	}
	return commands.RunStats(path, os.Stdout)
}
