package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTPAddr != ":7000" {
		t.Fatalf("expected default addr, got %q", cfg.App.HTTPAddr)
	}
	if cfg.Security.TokenExpiry != 8*time.Hour {
		t.Fatalf("expected 8h token expiry, got %v", cfg.Security.TokenExpiry)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("default env should be development")
	}
}

func TestLoad_FileWithPartialValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"app": {"http_addr": ":9000", "cors_origins": "https://a.com, https://b.com"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTPAddr != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.App.HTTPAddr)
	}
	// 未设置的字段要有默认值
	if cfg.App.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.App.LogLevel)
	}

	origins := cfg.App.Origins()
	if len(origins) != 2 || origins[0] != "https://a.com" || origins[1] != "https://b.com" {
		t.Fatalf("unexpected origins: %v", origins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env_secret")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("ENVIRONMENT_MODE", "production")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Security.JWTSecret != "env_secret" {
		t.Fatalf("expected env jwt secret, got %q", cfg.Security.JWTSecret)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.IsDevelopment() {
		t.Fatal("env should be production")
	}
}

func TestOrigins_Empty(t *testing.T) {
	app := AppConfig{CORSOrigins: ""}
	if got := app.Origins(); got != nil {
		t.Fatalf("expected nil origins, got %v", got)
	}
}
