package translation

import (
	"context"
	"fmt"
	"strings"

	"horse.fit/transpop/internal/globaltime"
	"horse.fit/transpop/internal/language"
)

// Client turns one text into a Result using the registry's default provider,
// auto source detection and the process-wide target language.
type Client struct {
	registry   *Registry
	targetLang string
}

func NewClient(registry *Registry, targetLang string) *Client {
	return &Client{
		registry:   registry,
		targetLang: language.NormalizeTag(targetLang),
	}
}

// TargetLang returns the fixed target language.
func (c *Client) TargetLang() string {
	if c == nil {
		return ""
	}
	return c.targetLang
}

// Translate calls the provider and builds a Result stamped with the completion
// time. SourceText is the trimmed input. It never touches the store.
func (c *Client) Translate(ctx context.Context, text string) (Result, error) {
	if c == nil || c.registry == nil {
		return Result{}, fmt.Errorf("translation client is not initialized")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{}, ErrEmptyText
	}

	provider, err := c.registry.Provider("")
	if err != nil {
		return Result{}, err
	}

	resp, err := provider.Translate(ctx, ProviderRequest{
		Text:       trimmed,
		SourceLang: language.Auto,
		TargetLang: c.targetLang,
	})
	if err != nil {
		return Result{}, err
	}
	if resp == nil {
		return Result{}, requestFailed(provider.Name(), 0, fmt.Errorf("provider returned no response"))
	}

	return Result{
		SourceText:             trimmed,
		TranslatedText:         resp.Text,
		DetectedSourceLanguage: language.DetectedOrAuto(resp.DetectedLang),
		UpdatedAt:              globaltime.Stamp(),
	}, nil
}
