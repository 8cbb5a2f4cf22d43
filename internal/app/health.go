package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/transpop/internal/cli"
	"horse.fit/transpop/internal/db"
	"horse.fit/transpop/internal/popup"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Second, "Store ping timeout")
	server := fs.Bool("server", false, "Also check the running server (TRANSPOP_SERVER_URL)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	logger.Info().
		Dur("timeout", *timeout).
		Str("dialect", pool.Dialect()).
		Msg("store health check passed")
	fmt.Printf("ok: %s store reachable\n", pool.Dialect())

	if !*server {
		return 0
	}

	backend, err := popup.NewHTTPBackend(cfg.ServerURL, *timeout, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	if err := backend.Health(ctx); err != nil {
		logger.Error().Err(err).Str("server_url", cfg.ServerURL).Msg("server health check failed")
		fmt.Fprintf(os.Stderr, "Server health check failed: %v\n", err)
		return 1
	}
	fmt.Printf("ok: server %s reachable\n", cfg.ServerURL)
	return 0
}
