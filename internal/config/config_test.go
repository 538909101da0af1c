package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Query != "label:inbox is:read" {
		t.Errorf("default query got %q", cfg.Query)
	}
	if cfg.MaxEmails != 10 {
		t.Errorf("default max_emails got %d", cfg.MaxEmails)
	}
	if cfg.CalendarID != "primary" {
		t.Errorf("default calendar_id got %q", cfg.CalendarID)
	}

	// The default file must have been written with restricted permissions.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms got %o, want 600", perm)
	}
}

func TestLoad_NormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "timezone: Europe/Berlin\nmax_emails: 25\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("timezone got %q", cfg.Timezone)
	}
	if cfg.MaxEmails != 25 {
		t.Errorf("max_emails got %d", cfg.MaxEmails)
	}
	if cfg.LLM.Model == "" || cfg.LLM.BaseURL == "" {
		t.Errorf("llm defaults not filled: %+v", cfg.LLM)
	}
	if cfg.LLM.MaxBodyChars != 4000 {
		t.Errorf("max_body_chars got %d", cfg.LLM.MaxBodyChars)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Query = "from:boss@example.com"
	cfg.TimedOnly = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Query != "from:boss@example.com" {
		t.Errorf("query got %q", loaded.Query)
	}
	if !loaded.TimedOnly {
		t.Error("timed_only not preserved")
	}
}
