package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`

	Redis RedisConfig `mapstructure:",squash"`

	// Room coordination
	RoomCapacity     int `mapstructure:"ROOM_CAPACITY"`
	ReapIntervalMins int `mapstructure:"REAP_INTERVAL_MINUTES"`
	GraceMins        int `mapstructure:"ROOM_GRACE_MINUTES"`

	// Rate limiting
	RateLimitMax        int `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindowSecs int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
	RateLimitBlockSecs  int `mapstructure:"RATE_LIMIT_BLOCK_SECONDS"`

	// Webhook idempotency
	WebhookDedupeTTLMins int `mapstructure:"WEBHOOK_DEDUPE_TTL_MINUTES"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ROOM_CAPACITY", 2)
	v.SetDefault("REAP_INTERVAL_MINUTES", 10)
	v.SetDefault("ROOM_GRACE_MINUTES", 30)
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 900)
	v.SetDefault("RATE_LIMIT_BLOCK_SECONDS", 1800)
	v.SetDefault("WEBHOOK_DEDUPE_TTL_MINUTES", 1440)

	for _, key := range []string{
		"PORT", "ENVIRONMENT", "ALLOWED_ORIGINS", "JWT_SECRET",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"ROOM_CAPACITY", "REAP_INTERVAL_MINUTES", "ROOM_GRACE_MINUTES",
		"RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW_SECONDS", "RATE_LIMIT_BLOCK_SECONDS",
		"WEBHOOK_DEDUPE_TTL_MINUTES",
	} {
		v.BindEnv(key)
	}

	// A missing .env file is fine; env vars and defaults cover everything.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.AllowedOrigins) == 1 && strings.Contains(cfg.AllowedOrigins[0], ",") {
		cfg.AllowedOrigins = strings.Split(cfg.AllowedOrigins[0], ",")
	}

	if cfg.RoomCapacity < 2 {
		return nil, fmt.Errorf("ROOM_CAPACITY must be at least 2, got %d", cfg.RoomCapacity)
	}
	if cfg.RateLimitMax < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindowSecs < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive, got %d", cfg.RateLimitWindowSecs)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) ReapInterval() time.Duration {
	return time.Duration(c.ReapIntervalMins) * time.Minute
}

func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.GraceMins) * time.Minute
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSecs) * time.Second
}

func (c *Config) RateLimitBlock() time.Duration {
	return time.Duration(c.RateLimitBlockSecs) * time.Second
}

func (c *Config) WebhookDedupeTTL() time.Duration {
	return time.Duration(c.WebhookDedupeTTLMins) * time.Minute
}
