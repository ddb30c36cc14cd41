package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Telegram
	TelegramToken string

	// Database
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Listing service
	ListingServiceURL     string
	ListingServiceTimeout time.Duration

	// HTTP API
	HTTPAddr  string
	JWTSecret string

	// Matching
	ReconcileInterval time.Duration
	FeedSize          int
	DefaultCredits    int
	QueueConcurrency  int

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LISTING_SERVICE_URL", "http://localhost:8083")
	v.SetDefault("LISTING_SERVICE_TIMEOUT", "10s")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("RECONCILE_INTERVAL", "1m")
	v.SetDefault("FEED_SIZE", 20)
	v.SetDefault("DEFAULT_CREDITS", 10)
	v.SetDefault("QUEUE_CONCURRENCY", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)

	cfg := &Config{
		TelegramToken:     v.GetString("TELEGRAM_TOKEN"),
		PostgresDSN:       v.GetString("POSTGRES_DSN"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		ListingServiceURL: v.GetString("LISTING_SERVICE_URL"),
		HTTPAddr:          v.GetString("HTTP_ADDR"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogJSON:           v.GetBool("LOG_JSON"),
	}

	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	var err error
	if cfg.RedisDB, err = intValue(v, "REDIS_DB"); err != nil {
		return nil, err
	}
	if cfg.FeedSize, err = intValue(v, "FEED_SIZE"); err != nil {
		return nil, err
	}
	if cfg.DefaultCredits, err = intValue(v, "DEFAULT_CREDITS"); err != nil {
		return nil, err
	}
	if cfg.QueueConcurrency, err = intValue(v, "QUEUE_CONCURRENCY"); err != nil {
		return nil, err
	}
	if cfg.ListingServiceTimeout, err = durationValue(v, "LISTING_SERVICE_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = durationValue(v, "RECONCILE_INTERVAL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is empty")
	}

	if c.ListingServiceURL == "" {
		return fmt.Errorf("listing service URL is empty")
	}

	if c.HTTPAddr != "" && c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required when the HTTP API is enabled")
	}

	if c.ReconcileInterval < 10*time.Second {
		return fmt.Errorf("reconcile interval too small: %v", c.ReconcileInterval)
	}

	if c.FeedSize < 1 || c.FeedSize > 100 {
		return fmt.Errorf("feed size must be between 1 and 100")
	}

	if c.DefaultCredits < 0 {
		return fmt.Errorf("default credits must not be negative")
	}

	if c.QueueConcurrency < 1 {
		return fmt.Errorf("queue concurrency must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

func intValue(v *viper.Viper, key string) (int, error) {
	raw := v.GetString(key)
	var n int
	if _, err := fmt.Sscan(raw, &n); err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
