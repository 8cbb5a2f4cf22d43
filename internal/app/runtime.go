package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/broadcast"
	"horse.fit/transpop/internal/cli"
	"horse.fit/transpop/internal/config"
	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/db"
	"horse.fit/transpop/internal/logging"
	"horse.fit/transpop/internal/popup"
	"horse.fit/transpop/internal/translation"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
)

func parseOutputFormat(raw string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = outputFormatText
	}
	switch format {
	case outputFormatText, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be text or json")
	}
}

// loadRuntime loads the .env file, configuration and logger shared by every
// command.
func loadRuntime(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// localStack is an in-process coordinator wired to the configured store and
// translation provider.
type localStack struct {
	pool  *db.Pool
	hub   *broadcast.Hub[coordinator.Event]
	coord *coordinator.Coordinator
}

func openLocalStack(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*localStack, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}

	registry := translation.NewRegistryFromConfig(cfg, logger)
	client := translation.NewClient(registry, cfg.TargetLang())
	hub := broadcast.NewHub[coordinator.Event](32)

	logger.Debug().
		Str("provider", registry.DefaultProvider()).
		Str("target_lang", client.TargetLang()).
		Str("dialect", pool.Dialect()).
		Msg("coordinator ready")

	return &localStack{
		pool:  pool,
		hub:   hub,
		coord: coordinator.New(client, pool, hub, logger),
	}, nil
}

func (s *localStack) backend() *popup.LocalBackend {
	return popup.NewLocalBackend(s.coord, s.hub)
}

func (s *localStack) Close() {
	if s == nil {
		return
	}
	_ = s.pool.Close()
}

func writeResult(w io.Writer, format string, result *translation.Result) error {
	if format == outputFormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"translation": result})
	}
	if result == nil {
		_, err := fmt.Fprintln(w, "No translation stored yet.")
		return err
	}
	if err := popup.RenderResult(w, *result); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "origin: %s\n", result.Origin)
	return err
}

func replyErr(reply coordinator.Reply) error {
	return &popup.ReplyError{Failure: reply.Failure, Message: reply.Error}
}
