package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBDriver string
	DBConn   string
	LogLevel string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	TxMaxRetries      int
	ReconcileSchedule string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AlertEmail   string

	AMQPURL      string
	AMQPExchange string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBDriver: getEnv("DB_DRIVER", DriverPostgres),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=ledger sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		JWTIssuer:   getEnv("JWT_ISSUER", "finance-ledger"),
		JWTAudience: getEnv("JWT_AUDIENCE", "finance-ledger-clients"),

		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@every 1h"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", ""),
		AlertEmail:   getEnv("ALERT_EMAIL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
	}

	var err error
	if cfg.JWTSecret, err = loadSecret("JWT_SECRET", "JWT_SECRET_FILE"); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.TxMaxRetries, err = strconv.Atoi(getEnv("TX_MAX_RETRIES", "3")); err != nil {
		return nil, fmt.Errorf("invalid TX_MAX_RETRIES: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges
func (c *Config) Validate() error {
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.DBConn == "" {
		return fmt.Errorf("DB_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET or JWT_SECRET_FILE is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.TxMaxRetries < 1 {
		return fmt.Errorf("TX_MAX_RETRIES must be at least 1")
	}
	if c.AlertEmail != "" && (c.SMTPHost == "" || c.SenderEmail == "") {
		return fmt.Errorf("ALERT_EMAIL requires SMTP_HOST and SENDER_EMAIL")
	}
	return nil
}

// AlertsEnabled reports whether reconciliation alerts can be mailed
func (c *Config) AlertsEnabled() bool {
	return c.AlertEmail != ""
}

// loadSecret prefers the inline variable and falls back to a mounted secret file
func loadSecret(key, fileKey string) (string, error) {
	if v := getEnv(key, ""); v != "" {
		return v, nil
	}
	path := getEnv(fileKey, "")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fileKey, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
