package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("VISUALIZATION_COUNT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
	if cfg.VisualizationCount != 4 {
		t.Fatalf("VisualizationCount = %d, want 4", cfg.VisualizationCount)
	}
	if cfg.GeminiImageModel != "gemini-2.5-flash-image" {
		t.Fatalf("GeminiImageModel = %q", cfg.GeminiImageModel)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("SessionTTL = %s, want 1h", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigAPIKeyAlias(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", " secret ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GeminiAPIKey != "secret" {
		t.Fatalf("GeminiAPIKey = %q, want %q", cfg.GeminiAPIKey, "secret")
	}
}

func TestLoadConfigPrefersGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("API_KEY", "alias")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.GeminiAPIKey != "primary" {
		t.Fatalf("GeminiAPIKey = %q, want %q", cfg.GeminiAPIKey, "primary")
	}
}

func TestLoadConfigSplitsOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com ,, https://b.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %#v, want %#v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
}

func TestLoadConfigRejectsNonPositiveVisualizationCount(t *testing.T) {
	t.Setenv("VISUALIZATION_COUNT", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for VISUALIZATION_COUNT=0")
	}
}

func TestLoadConfigRejectsNonPositiveBreakerMaxFailures(t *testing.T) {
	for _, v := range []string{"0", "-1"} {
		t.Setenv("BREAKER_MAX_FAILURES", v)
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error for BREAKER_MAX_FAILURES=%s", v)
		}
	}
}
