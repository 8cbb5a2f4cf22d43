package app

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/broadcast"
	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/db"
	"horse.fit/transpop/internal/popup"
	"horse.fit/transpop/internal/translation"
)

type upperTranslator struct{}

func (upperTranslator) Translate(_ context.Context, text string) (translation.Result, error) {
	trimmed := strings.TrimSpace(text)
	return translation.Result{
		SourceText:             trimmed,
		TranslatedText:         strings.ToUpper(trimmed),
		DetectedSourceLanguage: "en",
		UpdatedAt:              time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC),
	}, nil
}

type memoryStore struct {
	mu     sync.Mutex
	record *db.LatestTranslationRecord
}

func (m *memoryStore) SaveLatestTranslation(_ context.Context, record db.LatestTranslationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = &record
	return nil
}

func (m *memoryStore) LoadLatestTranslation(context.Context) (*db.LatestTranslationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return nil, nil
	}
	copied := *m.record
	return &copied, nil
}

func TestRun_UsageExitCodes(t *testing.T) {
	t.Parallel()

	if code := Run(nil); code != 2 {
		t.Fatalf("expected 2 without args, got %d", code)
	}
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("expected 0 for help, got %d", code)
	}
	if code := Run([]string{"bogus"}); code != 2 {
		t.Fatalf("expected 2 for an unknown command, got %d", code)
	}
	if code := Run([]string{"translate"}); code != 2 {
		t.Fatalf("expected 2 for translate without text, got %d", code)
	}
	if code := Run([]string{"translate", "--origin", "sidebar", "hi"}); code != 2 {
		t.Fatalf("expected 2 for an unknown origin, got %d", code)
	}
	if code := Run([]string{"daemon", "reboot"}); code != 2 {
		t.Fatalf("expected 2 for an unknown daemon action, got %d", code)
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]string{"": "text", " JSON ": "json", "text": "text"} {
		got, err := parseOutputFormat(raw)
		if err != nil || got != want {
			t.Fatalf("parseOutputFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := parseOutputFormat("table"); err == nil {
		t.Fatalf("expected table to be rejected")
	}
}

func TestWriteResult(t *testing.T) {
	t.Parallel()

	result := &translation.Result{
		SourceText:             "hello",
		TranslatedText:         "こんにちは",
		DetectedSourceLanguage: "en",
		Origin:                 translation.OriginManual,
	}

	var text bytes.Buffer
	if err := writeResult(&text, outputFormatText, result); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if !strings.Contains(text.String(), "訳文: こんにちは") || !strings.Contains(text.String(), "origin: manual") {
		t.Fatalf("unexpected text output:\n%s", text.String())
	}

	var empty bytes.Buffer
	if err := writeResult(&empty, outputFormatText, nil); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if !strings.Contains(empty.String(), "No translation") {
		t.Fatalf("unexpected empty output %q", empty.String())
	}

	var encoded bytes.Buffer
	if err := writeResult(&encoded, outputFormatJSON, result); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded struct {
		Translation translation.Result `json:"translation"`
	}
	if err := json.Unmarshal(encoded.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Translation.TranslatedText != "こんにちは" {
		t.Fatalf("unexpected json output %s", encoded.String())
	}
}

func TestRunPopupLoop(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[coordinator.Event](8)
	coord := coordinator.New(upperTranslator{}, &memoryStore{}, hub, zerolog.Nop())
	backend := popup.NewLocalBackend(coord, hub)

	in := strings.NewReader("hello\n   \n:q\nignored\n")
	var out bytes.Buffer
	if err := runPopupLoop(context.Background(), backend, in, &out, time.Second, zerolog.Nop()); err != nil {
		t.Fatalf("popup loop: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"[progress] 翻訳中...",
		"[success] 翻訳が完了しました。",
		"訳文: HELLO",
		"[error] テキストを入力してください。",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("popup output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "IGNORED") {
		t.Fatalf("input after quit was submitted:\n%s", output)
	}
}
