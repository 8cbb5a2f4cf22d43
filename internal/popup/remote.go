package popup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/translation"
)

const maxEventLineBytes = 1 << 20

// HTTPBackend reaches a coordinator served by `transpop serve`.
type HTTPBackend struct {
	baseURL      string
	client       *http.Client
	streamClient *http.Client
	logger       zerolog.Logger
}

func NewHTTPBackend(baseURL string, timeout time.Duration, logger zerolog.Logger) (*HTTPBackend, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server url must use http or https")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPBackend{
		baseURL:      strings.TrimRight(parsed.String(), "/"),
		client:       &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		logger:       logger,
	}, nil
}

type jsendEnvelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type translationPayload struct {
	Translation *translation.Result `json:"translation"`
}

func (b *HTTPBackend) GetLatest(ctx context.Context) (*translation.Result, error) {
	return b.call(ctx, http.MethodGet, "/api/v1/translations/latest", nil)
}

func (b *HTTPBackend) Translate(ctx context.Context, text string, origin translation.Origin) (*translation.Result, error) {
	body, err := json.Marshal(map[string]string{
		"text":   text,
		"origin": string(origin),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal translate request: %w", err)
	}
	return b.call(ctx, http.MethodPost, "/api/v1/translations", body)
}

// TriggerSelection posts text as a context-action selection. The server
// accepts it immediately and broadcasts the outcome.
func (b *HTTPBackend) TriggerSelection(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal selection request: %w", err)
	}
	_, err = b.call(ctx, http.MethodPost, "/api/v1/selection", body)
	return err
}

// Health reports whether the server answers its health endpoint.
func (b *HTTPBackend) Health(ctx context.Context) error {
	_, err := b.call(ctx, http.MethodGet, "/api/v1/health", nil)
	return err
}

func (b *HTTPBackend) call(ctx context.Context, method, path string, body []byte) (*translation.Result, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var envelope jsendEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || envelope.Status != "success" {
		return nil, &ReplyError{
			Failure: failureForStatus(resp.StatusCode),
			Message: envelope.Message,
		}
	}

	var payload translationPayload
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode translation: %w", err)
		}
	}
	return payload.Translation, nil
}

func failureForStatus(status int) coordinator.FailureKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return coordinator.FailureValidation
	case http.StatusBadGateway:
		return coordinator.FailureRequest
	case http.StatusServiceUnavailable:
		return coordinator.FailureStore
	default:
		return coordinator.FailureInternal
	}
}

// Subscribe opens the server-sent event stream. The subscription ends when
// ctx is done, Close is called, or the server drops the stream.
func (b *HTTPBackend) Subscribe(ctx context.Context) (Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, b.baseURL+"/api/v1/events", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build event stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open event stream: unexpected status %d", resp.StatusCode)
	}

	sub := &streamSubscription{
		events: make(chan coordinator.Event, 16),
		cancel: cancel,
	}
	go sub.read(streamCtx, resp.Body, b.logger)
	return sub, nil
}

type streamSubscription struct {
	events    chan coordinator.Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *streamSubscription) Events() <-chan coordinator.Event {
	return s.events
}

func (s *streamSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}

func (s *streamSubscription) read(ctx context.Context, body io.ReadCloser, logger zerolog.Logger) {
	defer close(s.events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventLineBytes)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var event coordinator.Event
			if err := json.Unmarshal([]byte(data.String()), &event); err != nil {
				logger.Warn().Err(err).Msg("discarding malformed event")
			} else {
				select {
				case s.events <- event:
				case <-ctx.Done():
					return
				}
			}
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("event stream ended")
	}
}
