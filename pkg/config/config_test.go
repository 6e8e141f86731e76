package config

import (
	"strings"
	"testing"
	"time"

	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "VALUESERP_API_KEY", "GEMINI_API_KEY", "SERP_TIMEOUT", "COMPARE_CONCURRENCY", "ENV"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SerpTimeout != 30*time.Second {
		t.Errorf("SerpTimeout = %v", cfg.SerpTimeout)
	}
	if cfg.CompareConcurrency != 4 || cfg.MaxKeywords != 4 {
		t.Errorf("concurrency/max = %d/%d", cfg.CompareConcurrency, cfg.MaxKeywords)
	}
	if cfg.IntentModel != DefaultIntentModel || cfg.IntentBaseURL != DefaultIntentBaseURL {
		t.Errorf("intent defaults = %q %q", cfg.IntentModel, cfg.IntentBaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SERP_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENV", "production")

	cfg := Load()
	if cfg.Port != "9000" || cfg.SerpTimeout != 5*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ProfilingEnabled || cfg.MetricsEnabled {
		t.Fatalf("production should default profiling and metrics off")
	}
	if cfg.LogConfig().Level != logging.LevelDebug {
		t.Fatalf("log level not mapped")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"bad port", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"zero concurrency", func(c *Config) { c.CompareConcurrency = 0 }, "COMPARE_CONCURRENCY"},
		{"too many keywords", func(c *Config) { c.MaxKeywords = 9 }, "MAX_KEYWORDS"},
		{"zero timeout", func(c *Config) { c.SerpTimeout = 0 }, "SERP_TIMEOUT"},
		{"port conflict", func(c *Config) { c.ProfilingEnabled = true; c.ProfilingPort = c.Port }, "PROFILING_PORT"},
		{"relative base path", func(c *Config) { c.BasePath = "app" }, "BASE_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mut(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errs.Is(err, errs.ErrValidation) {
				t.Fatalf("expected ValidationError kind, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error should name %s: %v", tt.field, err)
			}
		})
	}
}

func TestWarnings_MissingKeys(t *testing.T) {
	cfg := &Config{}
	if got := len(cfg.Warnings()); got != 3 {
		t.Fatalf("expected 3 warnings, got %d", got)
	}
	cfg = &Config{ValueSERPAPIKey: "a", GeminiAPIKey: "b", GoogleMapsAPIKey: "c"}
	if got := cfg.Warnings(); len(got) != 0 {
		t.Fatalf("unexpected warnings: %v", got)
	}
}

func TestSummary_MasksSecrets(t *testing.T) {
	cfg := Load()
	cfg.ValueSERPAPIKey = "abcdefghij"
	s := cfg.Summary()
	if s["valueserp_api_key"] != "abcd******" {
		t.Fatalf("key not masked: %v", s["valueserp_api_key"])
	}
}
