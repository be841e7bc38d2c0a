// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	SMTP      SMTPConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Backend   BackendConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects postgres (host/port/...) or sqlite (Path).
type DatabaseConfig struct {
	Driver   string // postgres, sqlite
	DSN      string // overrides the individual postgres fields when set
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	MigrationsDir string
	Seed          bool
	CompanyName   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
	FromAddr string
}

// Enabled reports whether statements can be emailed.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

type KafkaConfig struct {
	Brokers []string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RateLimitConfig is the per-client request budget. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// BackendConfig is used by the settle CLI.
type BackendConfig struct {
	URL     string
	Timeout int // seconds
}

// ConnString returns the postgres connection string in key=value format.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the postgres connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:      os.Getenv("DATABASE_DSN"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "haulage"),
			Password: getEnv("DB_PASSWORD", "haulage123"),
			DBName:   getEnv("DB_NAME", "haulage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "haulage.db"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", false),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
			Seed:          getEnvBool("DB_SEED", false),
			CompanyName:   getEnv("COMPANY_NAME", "Haulage"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			FromName: getEnv("SMTP_FROM_NAME", "Accounts"),
			FromAddr: getEnv("SMTP_FROM_EMAIL", "accounts@localhost"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Backend: BackendConfig{
			URL:     getEnv("BACKEND_URL", "http://localhost:8080"),
			Timeout: getEnvInt("BACKEND_TIMEOUT", 15),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
