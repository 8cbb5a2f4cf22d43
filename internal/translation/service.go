package translation

import (
	"context"
	"time"
)

// Provider is one translation backend. A provider reports the language it
// detected but never stores anything.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req ProviderRequest) (*ProviderResponse, error)
	SupportedLanguages() []string
}

// ProviderRequest asks for Text rendered in TargetLang. SourceLang is
// language.Auto unless the caller already knows it.
type ProviderRequest struct {
	Text       string
	SourceLang string
	TargetLang string
}

// ProviderResponse carries the joined translated fragments.
type ProviderResponse struct {
	Text         string
	DetectedLang string // "auto" when the provider could not tell
	TargetLang   string
	Provider     string
	Latency      time.Duration
}
