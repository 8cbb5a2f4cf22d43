package cli

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvLoader_LoadsRequestedFile(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	t.Setenv("TRANSLATION_TARGET_LANG", "")

	path := filepath.Join(t.TempDir(), "popup.env")
	if err := os.WriteFile(path, []byte("TRANSLATION_TARGET_LANG=ko\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	loader := AddEnvFlag(fs, filepath.Join(t.TempDir(), ".env"), "")
	if err := fs.Parse([]string{"--env", path}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if loaded != path {
		t.Fatalf("unexpected loaded path: %q", loaded)
	}
	if got := os.Getenv("TRANSLATION_TARGET_LANG"); got != "ko" {
		t.Fatalf("expected env file to be applied, got %q", got)
	}
}

func TestEnvLoader_MissingDefaultIsNotAnError(t *testing.T) {
	t.Setenv(EnvFileVar, "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	loader := AddEnvFlag(fs, filepath.Join(t.TempDir(), ".env"), "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("expected missing default env file to be ignored, got %v", err)
	}
	if loaded != "" {
		t.Fatalf("expected nothing to be loaded, got %q", loaded)
	}
}

func TestEnvLoader_MissingExplicitFileFails(t *testing.T) {
	t.Setenv(EnvFileVar, "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	loader := AddEnvFlag(fs, filepath.Join(t.TempDir(), ".env"), "")
	if err := fs.Parse([]string{"--env", filepath.Join(t.TempDir(), "nope.env")}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if _, err := loader.Load(); err == nil {
		t.Fatalf("expected explicit missing env file to fail")
	}
}

func TestEnvLoader_Candidates(t *testing.T) {
	t.Parallel()

	loader := &EnvLoader{defaultPath: ".env"}
	got := loader.candidates("/etc/transpop/popup.env")
	if len(got) != 3 || got[0] != "/etc/transpop/popup.env" || got[1] != "popup.env" || got[2] != ".env" {
		t.Fatalf("unexpected candidates: %#v", got)
	}

	got = loader.candidates(".env")
	if len(got) != 1 || got[0] != ".env" {
		t.Fatalf("unexpected candidates for default path: %#v", got)
	}
}
