package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Session.TTLDays != 7 {
		t.Errorf("Session.TTLDays = %d, want 7", cfg.Session.TTLDays)
	}
	if cfg.Session.TTL() != 7*24*time.Hour {
		t.Errorf("Session.TTL() = %v, want 168h", cfg.Session.TTL())
	}
	if cfg.Session.Policy != "multi" {
		t.Errorf("Session.Policy = %q, want multi", cfg.Session.Policy)
	}
	if cfg.Database.MaxLifetime != 1800*time.Second {
		t.Errorf("Database.MaxLifetime = %v, want 30m", cfg.Database.MaxLifetime)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Log.File != filepath.Join("logs", "app.log") {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatekeeper.yaml")
	os.WriteFile(path, []byte(`
server:
  port: 8088
  request_timeout: 5s
session:
  ttl_days: 3
  policy: single
redis:
  addr: cache:6379
`), 0644)

	t.Setenv("GATEKEEPER_REDIS_DB", "4")

	v := viper.New()
	ConfigureViper(v, path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8088 {
		t.Errorf("Server.Port = %d, want 8088", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Session.Policy != "single" || cfg.Session.TTLDays != 3 {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 4 {
		t.Errorf("Redis.DB = %d, want 4 from env", cfg.Redis.DB)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"ttl", func(c *Config) { c.Session.TTLDays = 0 }},
		{"policy", func(c *Config) { c.Session.Policy = "many" }},
		{"driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"dsn", func(c *Config) { c.Database.Driver = DriverPostgres; c.Database.DSN = "" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			cfg, err := Load(v)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
