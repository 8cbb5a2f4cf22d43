package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/transpop/internal/cli"
	"horse.fit/transpop/internal/popup"
	"horse.fit/transpop/internal/translation"
)

func runLatest(args []string) int {
	fs := flag.NewFlagSet("latest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")
	format := fs.String("format", outputFormatText, "Output format: text or json")
	remote := fs.Bool("remote", false, "Read through the running server (TRANSPOP_SERVER_URL)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "latest does not accept positional args")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Latest failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var backend interface {
		GetLatest(ctx context.Context) (*translation.Result, error)
	}
	if *remote {
		httpBackend, err := popup.NewHTTPBackend(cfg.ServerURL, *timeout, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Latest failed: %v\n", err)
			return 1
		}
		backend = httpBackend
	} else {
		stack, err := openLocalStack(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Latest failed: %v\n", err)
			return 1
		}
		defer stack.Close()
		backend = stack.backend()
	}

	result, err := backend.GetLatest(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Latest failed: %v\n", err)
		return 1
	}
	if err := writeResult(os.Stdout, outputFormat, result); err != nil {
		fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
		return 1
	}
	return 0
}
