package translation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newGoogleTestServer(t *testing.T, status int, body string, seen *url.Values) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if seen != nil {
			*seen = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGoogleProvider_BuildsQuery(t *testing.T) {
	t.Parallel()

	var seen url.Values
	server := newGoogleTestServer(t, http.StatusOK, `[[["こんにちは","hello",null,null,1]],null,"en"]`, &seen)
	provider := NewGoogleProvider(server.URL+"/translate_a/single", "", time.Second)

	if _, err := provider.Translate(context.Background(), ProviderRequest{
		Text:       "  hello & goodbye  ",
		TargetLang: "ja",
	}); err != nil {
		t.Fatalf("translate: %v", err)
	}

	want := map[string]string{
		"client": "gtx",
		"sl":     "auto",
		"tl":     "ja",
		"dt":     "t",
		"q":      "hello & goodbye",
	}
	for key, value := range want {
		if got := seen.Get(key); got != value {
			t.Fatalf("unexpected %s query value: got %q want %q", key, got, value)
		}
	}
}

func TestGoogleProvider_ParsesResponses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		body         string
		wantText     string
		wantDetected string
	}{
		{
			name:         "single sentence",
			body:         `[[["こんにちは","hello",null,null,1]],null,"en"]`,
			wantText:     "こんにちは",
			wantDetected: "en",
		},
		{
			name:         "sentences concatenated in order",
			body:         `[[["今日は。","Today.",null,null,1],["晴れです。","It is sunny.",null,null,1]],null,"en"]`,
			wantText:     "今日は。晴れです。",
			wantDetected: "en",
		},
		{
			name:         "null sentences",
			body:         `[null,null,"auto"]`,
			wantText:     "",
			wantDetected: "auto",
		},
		{
			name:         "empty sentences",
			body:         `[[],null,"auto"]`,
			wantText:     "",
			wantDetected: "auto",
		},
		{
			name:         "missing detected language",
			body:         `[[["やあ","hi"]]]`,
			wantText:     "やあ",
			wantDetected: "auto",
		},
		{
			name:         "malformed sentence entries are skipped",
			body:         `[[null,"oops",[],[42,"x"],["ok","src"]],null,""]`,
			wantText:     "ok",
			wantDetected: "auto",
		},
		{
			name:         "non array body",
			body:         `{"error":"unexpected"}`,
			wantText:     "",
			wantDetected: "auto",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newGoogleTestServer(t, http.StatusOK, tc.body, nil)
			provider := NewGoogleProvider(server.URL, "gtx", time.Second)

			resp, err := provider.Translate(context.Background(), ProviderRequest{Text: "hello", TargetLang: "ja"})
			if err != nil {
				t.Fatalf("translate: %v", err)
			}
			if resp.Text != tc.wantText {
				t.Fatalf("unexpected text: got %q want %q", resp.Text, tc.wantText)
			}
			if resp.DetectedLang != tc.wantDetected {
				t.Fatalf("unexpected detected language: got %q want %q", resp.DetectedLang, tc.wantDetected)
			}
			if resp.Provider != "google" || resp.TargetLang != "ja" {
				t.Fatalf("unexpected provider metadata: %+v", resp)
			}
		})
	}
}

func TestGoogleProvider_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := newGoogleTestServer(t, http.StatusTooManyRequests, `rate limited`, nil)
	provider := NewGoogleProvider(server.URL, "gtx", time.Second)

	_, err := provider.Translate(context.Background(), ProviderRequest{Text: "hello", TargetLang: "ja"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T", err)
	}
	if reqErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: %d", reqErr.StatusCode)
	}
	if reqErr.UserMessage() != MessageRequestFailed {
		t.Fatalf("unexpected user message: %q", reqErr.UserMessage())
	}
}

func TestGoogleProvider_InvalidJSON(t *testing.T) {
	t.Parallel()

	server := newGoogleTestServer(t, http.StatusOK, `[[["broken"`, nil)
	provider := NewGoogleProvider(server.URL, "gtx", time.Second)

	if _, err := provider.Translate(context.Background(), ProviderRequest{Text: "hello", TargetLang: "ja"}); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed for invalid JSON, got %v", err)
	}
}

func TestGoogleProvider_TransportFault(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	provider := NewGoogleProvider(endpoint, "gtx", time.Second)
	if _, err := provider.Translate(context.Background(), ProviderRequest{Text: "hello", TargetLang: "ja"}); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed for transport fault, got %v", err)
	}
}

func TestGoogleProvider_BlankText(t *testing.T) {
	t.Parallel()

	provider := NewGoogleProvider("http://127.0.0.1:1", "gtx", time.Second)
	if _, err := provider.Translate(context.Background(), ProviderRequest{Text: " \n\t", TargetLang: "ja"}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}
