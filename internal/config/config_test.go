package config

import (
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ward")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.AutosaveDebounceMs != 3000 {
		t.Errorf("expected default debounce 3000ms, got %d", cfg.AutosaveDebounceMs)
	}
	if cfg.ReclassifyIntervalSec != 60 {
		t.Errorf("expected default reclassify interval 60s, got %d", cfg.ReclassifyIntervalSec)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ward")
	t.Setenv("PORT", "9100")
	t.Setenv("AUTOSAVE_DEBOUNCE_MS", "500")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected port 9100, got %s", cfg.Port)
	}
	if cfg.AutosaveDebounceMs != 500 {
		t.Errorf("expected debounce 500ms, got %d", cfg.AutosaveDebounceMs)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{AutosaveDebounceMs: 3000, ReclassifyIntervalSec: 60}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.AutosaveDebounceMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero debounce")
	}

	cfg.AutosaveDebounceMs = 3000
	cfg.ReclassifyIntervalSec = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative reclassify interval")
	}
}
