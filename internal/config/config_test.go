package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "homebase.db" || cfg.Trigger.Interval != time.Hour || cfg.Trigger.Workers != 4 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homebase.yaml")
	yaml := `
port: "9000"
timezone: Europe/Berlin
redis:
  addr: localhost:6379
  db: 2
trigger:
  interval: 30m
  workers: 8
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOMEBASE_PORT", "9100")
	t.Setenv("HOMEBASE_REDIS_DB", "5")
	t.Setenv("HOMEBASE_TRIGGER_INTERVAL", "2h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("Port = %q, want 9100", cfg.Port)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 5 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Trigger.Interval != 2*time.Hour || cfg.Trigger.Workers != 8 {
		t.Errorf("Trigger = %+v", cfg.Trigger)
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("HOMEBASE_TRIGGER_WORKERS", "many")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric workers")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("port: [unclosed"), 0o600)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	good := Default()
	good.JWTSecret = "0123456789abcdef"
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate good config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "jwt secret is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 16 bytes"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"tiny interval", func(c *Config) { c.Trigger.Interval = time.Second }, "interval"},
		{"half vapid", func(c *Config) { c.VAPID.PublicKey = "pub" }, "vapid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
