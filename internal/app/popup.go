package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/cli"
	"horse.fit/transpop/internal/popup"
)

const popupQuitCommand = ":q"

// runPopup opens a terminal translation view. Each input line is submitted;
// results pushed by the server (for example from `transpop select`) are
// rendered as they arrive.
func runPopup(args []string) int {
	fs := flag.NewFlagSet("popup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", time.Minute, "Per-request timeout")
	local := fs.Bool("local", false, "Run an in-process coordinator instead of connecting to the server")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Popup failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	var backend popup.Backend
	if *local {
		stack, err := openLocalStack(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Popup failed: %v\n", err)
			return 1
		}
		defer stack.Close()
		backend = stack.backend()
	} else {
		httpBackend, err := popup.NewHTTPBackend(cfg.ServerURL, *timeout, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Popup failed: %v\n", err)
			return 1
		}
		backend = httpBackend
	}

	if err := runPopupLoop(ctx, backend, os.Stdin, os.Stdout, *timeout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Popup failed: %v\n", err)
		return 1
	}
	return 0
}

func runPopupLoop(ctx context.Context, backend popup.Backend, in io.Reader, out io.Writer, timeout time.Duration, logger zerolog.Logger) error {
	view := popup.NewView(backend, logger, popup.WithRenderer(func(s popup.State) {
		fmt.Fprintln(out, "========")
		if err := popup.Render(out, s); err != nil {
			logger.Warn().Err(err).Msg("render failed")
		}
	}))
	defer view.Close()

	view.Activate(ctx)
	fmt.Fprintf(out, "テキストを入力して Enter で翻訳します (%s で終了)\n", popupQuitCommand)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) == popupQuitCommand {
				return nil
			}
			submitCtx, cancel := context.WithTimeout(ctx, timeout)
			view.Submit(submitCtx, line)
			cancel()
		}
	}
}
