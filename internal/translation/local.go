package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"horse.fit/transpop/internal/langdetect"
	"horse.fit/transpop/internal/language"
)

const (
	DefaultLocalEndpoint = "http://127.0.0.1:8845/v1"
	DefaultLocalModel    = "tencent/HY-MT1.5-7B"

	maxLocalResponseBytes = 1 << 20
)

// LocalProvider sends selections to an OpenAI-compatible chat completions
// server running a HY-MT model. The server does not report a source language,
// so detection happens in process with lingua.
type LocalProvider struct {
	chatURL string
	model   string
	client  *http.Client
	detect  func(string) string
}

func NewLocalProvider(endpoint, model string, timeout time.Duration) *LocalProvider {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultLocalModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LocalProvider{
		chatURL: localChatURL(endpoint),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		detect:  langdetect.DetectISO6391,
	}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *LocalProvider) Translate(ctx context.Context, req ProviderRequest) (*ProviderResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("local provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	target := language.NormalizeCode(req.TargetLang)
	if target == "" {
		return nil, fmt.Errorf("target language is required")
	}

	source := language.NormalizeCode(req.SourceLang)
	if source == "" || source == language.Auto {
		source = language.DetectedOrAuto(p.detect(text))
	}

	started := time.Now()
	content, err := p.complete(ctx, buildHYMTPrompt(text, source, target))
	if err != nil {
		return nil, err
	}

	return &ProviderResponse{
		Text:         content,
		DetectedLang: source,
		TargetLang:   target,
		Provider:     p.Name(),
		Latency:      time.Since(started),
	}, nil
}

// complete posts a single user message and returns the first choice. A reply
// without choices is an empty translation.
func (p *LocalProvider) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(localChatRequest{
		Model:       p.model,
		Messages:    []localChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		TopP:        0.6,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", requestFailed(p.Name(), 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLocalResponseBytes))
	if err != nil {
		return "", requestFailed(p.Name(), 0, fmt.Errorf("read chat response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", requestFailed(p.Name(), resp.StatusCode, localChatError(body))
	}

	var parsed localChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", requestFailed(p.Name(), 0, fmt.Errorf("decode chat response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

type localChatRequest struct {
	Model       string             `json:"model"`
	Messages    []localChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
}

type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type localChatResponse struct {
	Choices []struct {
		Message localChatMessage `json:"message"`
	} `json:"choices"`
}

// localChatError extracts error.message from an OpenAI-style error body, or
// returns nil so the status code alone describes the failure.
func localChatError(body []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	if msg := strings.TrimSpace(payload.Error.Message); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func buildHYMTPrompt(text, source, target string) string {
	label := targetLanguageLabel(target)
	if language.NormalizeCode(source) == "zh" || language.NormalizeCode(target) == "zh" {
		return fmt.Sprintf("将以下文本翻译为%s，注意只需要输出翻译后的结果，不要额外解释：\n\n%s", label.chinese, text)
	}
	return fmt.Sprintf("Translate the following segment into %s, without additional explanation.\n\n%s", label.english, text)
}

func targetLanguageLabel(lang string) languageLabel {
	if labels, ok := translationLanguageLabels[language.NormalizeCode(lang)]; ok {
		return labels
	}
	fallback := strings.TrimSpace(lang)
	if fallback == "" {
		fallback = "Japanese"
	}
	return languageLabel{english: fallback, chinese: fallback}
}

// localChatURL resolves a configured endpoint to its chat completions URL.
// Bare hosts get http://, and paths not already ending in /v1 get it appended.
func localChatURL(raw string) string {
	fallback := DefaultLocalEndpoint + "/chat/completions"

	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return fallback
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return fallback
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}
	return parsed.String()
}
