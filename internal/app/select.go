package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/transpop/internal/cli"
	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/popup"
)

// runSelect is the context-action trigger: it hands selected text to the
// coordinator and never fails on a blank selection.
func runSelect(args []string) int {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")
	local := fs.Bool("local", false, "Run the selection in-process instead of posting to the server")
	format := fs.String("format", outputFormatText, "Output format for --local: text or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	text := strings.Join(fs.Args(), " ")

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if !*local {
		backend, err := popup.NewHTTPBackend(cfg.ServerURL, *timeout, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
			return 1
		}
		if err := backend.TriggerSelection(ctx, text); err != nil {
			fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
			return 1
		}
		fmt.Println("selection accepted")
		return 0
	}

	stack, err := openLocalStack(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", err)
		return 1
	}
	defer stack.Close()

	reply := stack.coord.Handle(ctx, coordinator.SelectionTranslate{Text: text})
	switch {
	case reply.Skipped:
		logger.Debug().Msg("blank selection ignored")
		return 0
	case !reply.OK:
		fmt.Fprintf(os.Stderr, "Select failed: %v\n", replyErr(reply))
		return 1
	}

	if err := writeResult(os.Stdout, outputFormat, reply.Result); err != nil {
		fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
		return 1
	}
	return 0
}
