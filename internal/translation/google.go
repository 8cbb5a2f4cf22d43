package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"horse.fit/transpop/internal/language"
)

const (
	// DefaultGoogleEndpoint is the public single-text translate endpoint.
	DefaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"
	// DefaultGoogleClient is the client id the endpoint expects for keyless access.
	DefaultGoogleClient = "gtx"

	maxGoogleResponseBytes = 4 << 20
)

// GoogleProvider calls the Google translate_a/single endpoint.
type GoogleProvider struct {
	endpoint   string
	clientName string
	client     *http.Client
}

func NewGoogleProvider(endpoint, clientName string, timeout time.Duration) *GoogleProvider {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		clientName = DefaultGoogleClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleProvider{
		endpoint:   endpoint,
		clientName: clientName,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *GoogleProvider) Translate(ctx context.Context, req ProviderRequest) (*ProviderResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("google provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	targetLang := language.NormalizeTag(req.TargetLang)
	if targetLang == "" {
		return nil, fmt.Errorf("target language is required")
	}
	sourceLang := language.NormalizeTag(req.SourceLang)
	if sourceLang == "" {
		sourceLang = language.Auto
	}

	requestURL, err := p.requestURL(text, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build translation request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, requestFailed(p.Name(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxGoogleResponseBytes))
		return nil, requestFailed(p.Name(), resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGoogleResponseBytes))
	if err != nil {
		return nil, requestFailed(p.Name(), 0, fmt.Errorf("read translation response: %w", err))
	}

	translated, detected, err := parseGoogleResponse(body)
	if err != nil {
		return nil, requestFailed(p.Name(), 0, err)
	}

	return &ProviderResponse{
		Text:         translated,
		DetectedLang: detected,
		TargetLang:   targetLang,
		Provider:     p.Name(),
		Latency:      time.Since(started),
	}, nil
}

func (p *GoogleProvider) requestURL(text, sourceLang, targetLang string) (string, error) {
	parsed, err := url.Parse(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse translation endpoint: %w", err)
	}
	query := parsed.Query()
	query.Set("client", p.clientName)
	query.Set("sl", sourceLang)
	query.Set("tl", targetLang)
	query.Set("dt", "t")
	query.Set("q", text)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// parseGoogleResponse reads [sentences, _, detectedLanguage, ...]. Each sentence is
// a [translatedFragment, original, ...] tuple. Missing or malformed parts degrade
// to an empty translation and the "auto" language; only invalid JSON is an error.
func parseGoogleResponse(body []byte) (string, string, error) {
	if !json.Valid(body) {
		return "", "", fmt.Errorf("decode translation response: invalid JSON")
	}

	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", language.Auto, nil
	}

	var builder strings.Builder
	if len(top) > 0 {
		var sentences []json.RawMessage
		if err := json.Unmarshal(top[0], &sentences); err == nil {
			for _, rawSentence := range sentences {
				var parts []json.RawMessage
				if err := json.Unmarshal(rawSentence, &parts); err != nil || len(parts) == 0 {
					continue
				}
				var fragment string
				if err := json.Unmarshal(parts[0], &fragment); err != nil {
					continue
				}
				builder.WriteString(fragment)
			}
		}
	}

	detected := language.Auto
	if len(top) > 2 {
		var code string
		if err := json.Unmarshal(top[2], &code); err == nil {
			detected = language.DetectedOrAuto(code)
		}
	}

	return builder.String(), detected, nil
}
