package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/broadcast"
	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/db"
	"horse.fit/transpop/internal/translation"
)

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{}
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (translation.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return translation.Result{}, fmt.Errorf("%w: %w", translation.ErrRequestFailed, ctx.Err())
		}
	}
	if f.err != nil {
		return translation.Result{}, f.err
	}
	return translation.Result{
		SourceText:             strings.TrimSpace(text),
		TranslatedText:         "こんにちは",
		DetectedSourceLanguage: "fr",
		UpdatedAt:              time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu      sync.Mutex
	record  *db.LatestTranslationRecord
	saveErr error
	loadErr error
}

func (f *fakeStore) SaveLatestTranslation(_ context.Context, record db.LatestTranslationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.record = &record
	return nil
}

func (f *fakeStore) LoadLatestTranslation(context.Context) (*db.LatestTranslationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.record == nil {
		return nil, nil
	}
	copied := *f.record
	return &copied, nil
}

func (f *fakeStore) saved() *db.LatestTranslationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

type testEnv struct {
	server     *Server
	handler    http.Handler
	translator *fakeTranslator
	store      *fakeStore
	hub        *broadcast.Hub[coordinator.Event]
}

func newTestEnv(opts Options) *testEnv {
	translator := &fakeTranslator{}
	store := &fakeStore{}
	hub := broadcast.NewHub[coordinator.Event](8)
	coord := coordinator.New(translator, store, hub, zerolog.Nop())
	if opts.KeepAliveInterval == 0 {
		opts.KeepAliveInterval = time.Hour
	}
	server := NewServer(coord, hub, zerolog.Nop(), opts)
	return &testEnv{
		server:     server,
		handler:    server.Handler(),
		translator: translator,
		store:      store,
		hub:        hub,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

type translationData struct {
	Translation *translation.Result `json:"translation"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func decodeTranslation(t *testing.T, env envelope) *translation.Result {
	t.Helper()
	var data translationData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return data.Translation
}

func TestHandleTranslate_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	rec, body := env.do(t, http.MethodPost, "/api/v1/translations", `{"text":"  bonjour ","origin":"popup"}`)
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	result := decodeTranslation(t, body)
	if result == nil || result.SourceText != "bonjour" || result.Origin != translation.OriginPopup {
		t.Fatalf("unexpected translation %+v", result)
	}
	if !result.UpdatedAt.Equal(time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updatedAt %s", result.UpdatedAt)
	}
	if !strings.Contains(rec.Body.String(), `"updatedAt":"2026-10-16T12:00:00Z"`) {
		t.Fatalf("expected ISO-8601 updatedAt on the wire: %s", rec.Body.String())
	}
}

func TestHandleTranslate_LongTextIsAccepted(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	text := strings.Repeat("bonjour ", 1000)
	rec, body := env.do(t, http.MethodPost, "/api/v1/translations", fmt.Sprintf(`{"text":%q}`, text))
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if got := decodeTranslation(t, body); got == nil || got.SourceText != strings.TrimSpace(text) {
		t.Fatalf("unexpected translation %+v", got)
	}
}

func TestHandleTranslate_BlankTextIsUnprocessable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	rec, body := env.do(t, http.MethodPost, "/api/v1/translations", `{"text":"   "}`)
	if rec.Code != http.StatusUnprocessableEntity || body.Status != "fail" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if body.Message != translation.MessageEmptyText {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if env.translator.callCount() != 0 {
		t.Fatalf("blank text reached the translator")
	}
}

func TestHandleTranslate_SchemaFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing text":   `{"origin":"popup"}`,
		"wrong type":     `{"text":42}`,
		"unknown origin": `{"text":"hi","origin":"sidebar"}`,
		"extra field":    `{"text":"hi","target":"en"}`,
		"not json":       `text=hi`,
		"empty body":     ``,
		"trailing data":  `{"text":"hi"} {}`,
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(Options{})
			rec, body := env.do(t, http.MethodPost, "/api/v1/translations", payload)
			if rec.Code != http.StatusBadRequest || body.Status != "fail" || body.Message != "Validation failed" {
				t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
			}
			if env.translator.callCount() != 0 {
				t.Fatalf("invalid body reached the translator")
			}
		})
	}
}

func TestHandleTranslate_FailureStatuses(t *testing.T) {
	t.Parallel()

	t.Run("request failed", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(Options{})
		env.translator.err = &translation.RequestError{Provider: "google", StatusCode: 500, Message: translation.MessageRequestFailed}
		rec, body := env.do(t, http.MethodPost, "/api/v1/translations", `{"text":"hello"}`)
		if rec.Code != http.StatusBadGateway || body.Status != "error" || body.Message != translation.MessageRequestFailed {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("store unavailable", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(Options{})
		env.store.saveErr = fmt.Errorf("%w: locked", db.ErrStoreUnavailable)
		rec, body := env.do(t, http.MethodPost, "/api/v1/translations", `{"text":"hello"}`)
		if rec.Code != http.StatusServiceUnavailable || body.Message != coordinator.MessageStoreUnavailable {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestHandleLatest(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	rec, body := env.do(t, http.MethodGet, "/api/v1/translations/latest", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"translation":null`) {
		t.Fatalf("expected null translation, got %d %s", rec.Code, rec.Body.String())
	}
	if decodeTranslation(t, body) != nil {
		t.Fatalf("expected nil translation")
	}

	env.do(t, http.MethodPost, "/api/v1/translations", `{"text":"hola"}`)
	_, body = env.do(t, http.MethodGet, "/api/v1/translations/latest", "")
	result := decodeTranslation(t, body)
	if result == nil || result.SourceText != "hola" || result.Origin != translation.OriginManual {
		t.Fatalf("unexpected latest %+v", result)
	}
}

func TestHandleLatest_StoreUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	env.store.loadErr = db.ErrStoreUnavailable
	rec, body := env.do(t, http.MethodGet, "/api/v1/translations/latest", "")
	if rec.Code != http.StatusServiceUnavailable || body.Status != "error" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSelection_AcceptedAndRunsDetached(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/selection", strings.NewReader(`{"text":"  bonjour  "}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	cancel()

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.store.saved() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("selection was never persisted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	saved := env.store.saved()
	if saved.SourceText != "bonjour" || saved.Origin != string(translation.OriginContextMenu) {
		t.Fatalf("unexpected saved record %+v", saved)
	}
}

func TestHandleTranslate_ClientDisconnectStillSavesAndBroadcasts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	env.translator.gate = make(chan struct{})
	sub := env.hub.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/translations", strings.NewReader(`{"text":"bonjour","origin":"popup"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	done := make(chan struct{})
	go func() {
		defer close(done)
		env.handler.ServeHTTP(httptest.NewRecorder(), req)
	}()

	deadline := time.Now().Add(time.Second)
	for env.translator.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("translator was never called")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done
	close(env.translator.gate)

	select {
	case event := <-sub.Events():
		if event.Kind != coordinator.EventResult || event.Payload == nil || event.Payload.SourceText != "bonjour" {
			t.Fatalf("expected a result event, got %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event after the client disconnected")
	}
	if saved := env.store.saved(); saved == nil || saved.SourceText != "bonjour" {
		t.Fatalf("expected the translation to be saved, got %+v", saved)
	}
}

func TestHandleSelection_BlankIsAcceptedButSkipped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	sub := env.hub.Subscribe()
	defer sub.Close()

	rec, _ := env.do(t, http.MethodPost, "/api/v1/selection", `{"text":"   "}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected response %d", rec.Code)
	}
	select {
	case event := <-sub.Events():
		t.Fatalf("blank selection broadcast %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
	if env.translator.callCount() != 0 {
		t.Fatalf("blank selection reached the translator")
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{HealthCheck: func(context.Context) error { return nil }})
	rec, body := env.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(body.Data), `"service":"transpop"`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}

	down := newTestEnv(Options{HealthCheck: func(context.Context) error { return errors.New("down") }})
	rec, _ = down.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUnknownRouteIsJSendFail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	rec, body := env.do(t, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound || body.Status != "fail" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{CORSAllowedOrigins: []string{"chrome-extension://abc"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/translations", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "chrome-extension://abc" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestHandleEvents_StreamsSelectionResult(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Options{})
	httpServer := httptest.NewServer(env.handler)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpServer.URL+"/api/v1/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != ": connected" {
		t.Fatalf("unexpected first line %q: %v", line, err)
	}

	post, err := http.Post(httpServer.URL+"/api/v1/selection", "application/json", strings.NewReader(`{"text":"  bonjour  "}`))
	if err != nil {
		t.Fatalf("post selection: %v", err)
	}
	_ = post.Body.Close()

	var eventName string
	var event coordinator.Event
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				t.Fatalf("decode event: %v", err)
			}
		}
		if line == "" && event.ID != "" {
			break
		}
	}

	if eventName != "result" || event.Kind != coordinator.EventResult || event.Payload == nil {
		t.Fatalf("unexpected event %q %+v", eventName, event)
	}
	if event.Payload.SourceText != "bonjour" || event.Payload.Origin != translation.OriginContextMenu {
		t.Fatalf("unexpected payload %+v", event.Payload)
	}
}
