package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/kind?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr)
	}
	if cfg.ReconcileInterval != time.Minute {
		t.Fatalf("unexpected reconcile interval %v", cfg.ReconcileInterval)
	}
	if cfg.FeedSize != 20 || cfg.DefaultCredits != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://db/kind")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("FEED_SIZE", "50")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RedisDB != 3 || cfg.FeedSize != 50 || cfg.ReconcileInterval != 30*time.Second || !cfg.LogJSON {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing dsn",
			env:  map[string]string{"POSTGRES_DSN": ""},
			want: "POSTGRES_DSN",
		},
		{
			name: "bad redis db",
			env:  map[string]string{"POSTGRES_DSN": "x", "REDIS_DB": "zero"},
			want: "REDIS_DB",
		},
		{
			name: "bad interval",
			env:  map[string]string{"POSTGRES_DSN": "x", "RECONCILE_INTERVAL": "soon"},
			want: "RECONCILE_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			PostgresDSN:       "postgres://db",
			ListingServiceURL: "http://listings",
			HTTPAddr:          ":8080",
			JWTSecret:         "secret",
			ReconcileInterval: time.Minute,
			FeedSize:          20,
			DefaultCredits:    10,
			QueueConcurrency:  4,
			LogLevel:          "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }},
		{name: "tiny interval", mutate: func(c *Config) { c.ReconcileInterval = time.Second }},
		{name: "feed too large", mutate: func(c *Config) { c.FeedSize = 500 }},
		{name: "negative credits", mutate: func(c *Config) { c.DefaultCredits = -1 }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
