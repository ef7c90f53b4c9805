package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"8080\"\ntokenSecret: file-secret\ndatabaseURL: postgres://file\ndefaultProvider: gemini\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Fatalf("env override not applied: %q", cfg.DatabaseURL)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("env credential not applied")
	}
	if cfg.DefaultProvider != "gemini" {
		t.Fatalf("file value lost: %q", cfg.DefaultProvider)
	}
}

func TestLoadMissingFileUsesEnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TokenSecret != "env-secret" {
		t.Fatalf("unexpected token secret: %q", cfg.TokenSecret)
	}
	if cfg.Port != "5000" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
}

func TestLoadRequiresTokenSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error without token secret")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error without database URL")
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("", time.Hour)
	if err != nil || d != time.Hour {
		t.Fatalf("expected fallback, got %v %v", d, err)
	}
	d, err = ParseDuration("30m", time.Hour)
	if err != nil || d != 30*time.Minute {
		t.Fatalf("expected 30m, got %v %v", d, err)
	}
	if _, err := ParseDuration("bogus", time.Hour); err == nil {
		t.Fatalf("expected parse error")
	}
}
