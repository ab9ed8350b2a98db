// Command pushgate-probe is an interactive debug client for Pushgate
// gateways. It connects, prints every decoded payload as it arrives,
// and sends each entered JSON line as a text frame.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/pushgate-protocol/pushgate-go/pkg/config"
	"github.com/pushgate-protocol/pushgate-go/pkg/gateway"
	"github.com/pushgate-protocol/pushgate-go/pkg/log"
	"github.com/pushgate-protocol/pushgate-go/pkg/transport"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		urlFlag    = flag.String("url", "", "gateway address (wss://host/path), overrides config")
		insecure   = flag.Bool("insecure", false, "skip certificate validation (testing only)")
		receipts   = flag.Bool("receipts", false, "capture and display receipt metadata")
		capture    = flag.String("capture", "", "CBOR diagnostic capture file")
		verbose    = flag.Bool("v", false, "print diagnostic events to stderr")
	)
	flag.Parse()

	if err := run(*configPath, *urlFlag, *insecure, *receipts, *capture, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, urlFlag string, insecure, receipts bool, capture string, verbose bool) error {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if urlFlag != "" {
		cfg.URL = urlFlag
	}
	if cfg.URL == "" {
		return fmt.Errorf("no gateway address: pass -url or set url in the config")
	}
	if insecure {
		cfg.InsecureSkipVerify = true
	}
	if receipts {
		cfg.Receipts = true
	}
	if capture != "" {
		cfg.CaptureFile = capture
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var extra []log.Logger
	if verbose {
		slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		extra = append(extra, log.NewSlogAdapter(slogger))
	}

	logger, captureFile, err := cfg.BuildLogger(extra...)
	if err != nil {
		return err
	}
	if captureFile != nil {
		defer captureFile.Close()
	}

	dialerCfg, err := cfg.DialerConfig(logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("Connecting to %s ...\n", cfg.URL)
	conn, err := transport.NewDialer(dialerCfg).Connect(ctx, cfg.URL)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Printf("Connected (%s)\n", conn.ID())

	codec := gateway.NewCodec(conn, cfg.CodecOptions(logger)...)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "probe> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	go receiveLoop(codec, rl, cancel)

	printHelp(rl)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch input {
		case "/help", "/?":
			printHelp(rl)
			continue
		case "/quit", "/exit":
			return nil
		case "/close":
			conn.Close()
			continue
		}

		var value any
		if err := json.Unmarshal([]byte(input), &value); err != nil {
			fmt.Fprintf(rl.Stdout(), "not valid JSON: %v\n", err)
			continue
		}
		if err := codec.Send(value); err != nil {
			fmt.Fprintf(rl.Stdout(), "send failed: %v\n", err)
		}
	}
}

// receiveLoop prints decoded payloads until the connection dies.
func receiveLoop(codec *gateway.Codec, rl *readline.Instance, cancel context.CancelFunc) {
	for {
		receipt, value, err := codec.Receive(true)
		if err != nil {
			var decodeErr *gateway.DecodeError
			switch {
			case errors.As(err, &decodeErr):
				fmt.Fprintf(rl.Stdout(), "<- malformed payload (%d raw bytes): %v\n",
					len(decodeErr.Raw), decodeErr.Err)
				continue
			default:
				fmt.Fprintf(rl.Stdout(), "connection lost: %v\n", err)
				cancel()
				return
			}
		}
		if value == nil {
			continue
		}

		rendered, err := json.Marshal(value)
		if err != nil {
			rendered = []byte(fmt.Sprintf("%v", value))
		}
		if receipt != nil {
			fmt.Fprintf(rl.Stdout(), "<- %s [%s, %s frame, %d bytes]\n",
				rendered,
				receipt.WallClock.Format(time.RFC3339Nano),
				strings.ToLower(receipt.Frame.Type.String()),
				len(receipt.Frame.Data))
		} else {
			fmt.Fprintf(rl.Stdout(), "<- %s\n", rendered)
		}
	}
}

func printHelp(rl *readline.Instance) {
	fmt.Fprintln(rl.Stdout(), "Enter a JSON value to send it as a text frame.")
	fmt.Fprintln(rl.Stdout(), "Commands:")
	fmt.Fprintln(rl.Stdout(), "  /help   show this help")
	fmt.Fprintln(rl.Stdout(), "  /close  close the connection")
	fmt.Fprintln(rl.Stdout(), "  /quit   exit")
}
