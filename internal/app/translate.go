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
	"horse.fit/transpop/internal/translation"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")
	origin := fs.String("origin", string(translation.OriginManual), "Origin tag: manual, popup or contextMenu")
	format := fs.String("format", outputFormatText, "Output format: text or json")
	remote := fs.Bool("remote", false, "Send the request to the running server (TRANSPOP_SERVER_URL)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		printTranslateUsage()
		return 2
	}

	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	parsedOrigin, err := translation.ParseOrigin(*origin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	text := strings.Join(fs.Args(), " ")

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var result *translation.Result
	if *remote {
		backend, err := popup.NewHTTPBackend(cfg.ServerURL, *timeout, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
			return 1
		}
		result, err = backend.Translate(ctx, text, parsedOrigin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
			return 1
		}
	} else {
		stack, err := openLocalStack(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
			return 1
		}
		defer stack.Close()

		reply := stack.coord.Handle(ctx, coordinator.TranslateRequest{Text: text, Origin: string(parsedOrigin)})
		if !reply.OK {
			fmt.Fprintf(os.Stderr, "Translate failed: %v\n", replyErr(reply))
			if reply.Failure == coordinator.FailureValidation {
				return 2
			}
			return 1
		}
		result = reply.Result
	}

	if err := writeResult(os.Stdout, outputFormat, result); err != nil {
		fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
		return 1
	}
	return 0
}

func printTranslateUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  transpop translate [--origin manual] [--format text|json] [--remote] [--env .env] [--timeout 1m] <text>")
}
