package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPPort != ":8080" {
		t.Fatalf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.AccessTTL)
	}
	if cfg.MaxVideoMB != 500 {
		t.Fatalf("MaxVideoMB = %d", cfg.MaxVideoMB)
	}
	if !cfg.CookieSecure {
		t.Fatalf("CookieSecure must default to true")
	}
}

func TestCookieSecureIndependentOfEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CookieSecure {
		t.Fatalf("CookieSecure should follow COOKIE_SECURE, not APP_ENV")
	}

	t.Setenv("APP_ENV", "dev")
	t.Setenv("COOKIE_SECURE", "true")
	if cfg, err = LoadConfig(t.TempDir()); err != nil || !cfg.CookieSecure {
		t.Fatalf("CookieSecure = %v, err %v", cfg.CookieSecure, err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "s3cret")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AccessSecret != "s3cret" {
		t.Fatalf("AccessSecret = %q", cfg.AccessSecret)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.AccessTTL)
	}
	origins := cfg.Origins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Fatalf("Origins = %v", origins)
	}
}
