package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/transpop/internal/language"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite://transpop.db"`
	DBMinConns  int32  `envconfig:"TP_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"TP_DB_MAX_CONNS" default:"4"`

	TranslationProvider   string        `envconfig:"TRANSLATION_PROVIDER" default:"google"`
	TranslationEndpoint   string        `envconfig:"TRANSLATION_ENDPOINT" default:"https://translate.googleapis.com/translate_a/single"`
	TranslationClient     string        `envconfig:"TRANSLATION_CLIENT" default:"gtx"`
	TranslationTargetLang string        `envconfig:"TRANSLATION_TARGET_LANG" default:"ja"`
	TranslationTimeout    time.Duration `envconfig:"TRANSLATION_TIMEOUT" default:"30s"`

	LocalTranslationEndpoint string `envconfig:"LOCAL_TRANSLATION_ENDPOINT" default:"http://127.0.0.1:8845/v1"`
	LocalTranslationModel    string `envconfig:"LOCAL_TRANSLATION_MODEL" default:"tencent/HY-MT1.5-7B"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
	ServerURL          string `envconfig:"TRANSPOP_SERVER_URL" default:"http://127.0.0.1:8090"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("TP_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("TP_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("TP_DB_MIN_CONNS (%d) cannot exceed TP_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if language.NormalizeTag(c.TranslationTargetLang) == "" {
		return fmt.Errorf("TRANSLATION_TARGET_LANG %q is not a valid language tag", c.TranslationTargetLang)
	}
	if strings.TrimSpace(c.TranslationClient) == "" {
		return fmt.Errorf("TRANSLATION_CLIENT is required")
	}
	if c.TranslationTimeout <= 0 {
		return fmt.Errorf("TRANSLATION_TIMEOUT must be > 0")
	}
	if err := validateHTTPURL("TRANSLATION_ENDPOINT", c.TranslationEndpoint); err != nil {
		return err
	}
	if err := validateHTTPURL("TRANSPOP_SERVER_URL", c.ServerURL); err != nil {
		return err
	}
	return nil
}

// TargetLang returns the normalized, process-wide translation target.
func (c *Config) TargetLang() string {
	if c == nil {
		return ""
	}
	return language.NormalizeTag(c.TranslationTargetLang)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}

func validateHTTPURL(name, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
