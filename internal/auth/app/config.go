package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for credentials (default: gatehouse)

	AccessSecret  string // Required: HMAC secret for access credentials
	RefreshSecret string // Required: HMAC secret for refresh credentials, must differ

	AccessTTL     time.Duration // Access credential lifetime (default: 15m)
	RefreshTTL    time.Duration // Refresh credential lifetime (default: 24h), must exceed AccessTTL
	ActivationTTL time.Duration // Activation token lifetime (default: 24h)
	ResetTTL      time.Duration // Password reset token lifetime (default: 1h)

	GoogleClientID string // Optional: enables POST /v1/auth/google when set

	SMTPAddr     string // Optional: host:port of the SMTP relay; log-only mailer when empty
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	BaseURL      string // Public base URL used in emailed links

	DatabaseFile         string        // Path to SQLite database file (default: ./auth.db)
	PepperFile           string        // Path to password hashing pepper file (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer: getEnvOrDefault("AUTH_ISSUER", "gatehouse"),

		AccessSecret:  os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("AUTH_REFRESH_SECRET"),

		AccessTTL:     getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:    getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		ActivationTTL: getEnvDurationOrDefault("AUTH_ACTIVATION_TTL", service.DefaultActivationTTL),
		ResetTTL:      getEnvDurationOrDefault("AUTH_RESET_TTL", service.DefaultResetTTL),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		BaseURL:      getEnvOrDefault("AUTH_BASE_URL", "http://localhost:8080"),

		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate catches misconfigurations that must stop the process at boot
// rather than surface as runtime signing failures.
func (c Config) Validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET are required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("credential lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return errors.New("access credential lifetime must be shorter than refresh lifetime")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
