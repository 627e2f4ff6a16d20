// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every environment-driven setting. It is loaded once in main
// and injected; nothing else reads the environment.
type Config struct {
	Port        string
	DatabaseURL string

	SessionSecret  string
	SessionTTLDays int
	RefreshTTLDays int

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	PublicBaseURL string

	MediaURL    string
	MediaKey    string
	MediaSecret string

	RedisAddr string
	RedisDB   int
}

// Load reads the process environment into a Config. DATABASE_URL and
// SESSION_SECRET are required; everything else has a workable default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		SessionTTLDays: getEnvInt("SESSION_TTL_DAYS", 7),
		RefreshTTLDays: getEnvInt("REFRESH_TTL_DAYS", 30),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@fivesuitsrummy.local"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		MediaURL:       getEnv("MEDIA_URL", ""),
		MediaKey:       getEnv("MEDIA_KEY", ""),
		MediaSecret:    getEnv("MEDIA_SECRET", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	return cfg, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
