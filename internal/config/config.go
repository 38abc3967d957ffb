package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmorake/floodwatch/internal/domain"
)

// Config holds all service settings, populated from environment variables.
// A .env file in the working directory is honored when present.
type Config struct {
	City string

	// OpenWeatherMap fetch settings.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	FetchTimeout       time.Duration
	FetchMaxAttempts   int
	FetchRetryDelay    time.Duration

	// Scheduling.
	PollInterval time.Duration

	// Persistence.
	DatabasePath string

	// Observability.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SMTP       SMTPConfig
	Thresholds domain.Thresholds
}

// SMTPConfig carries the outbound email settings. An empty Username or
// Password means email delivery is disabled; alerts are then only logged.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Configured reports whether enough is set to attempt an SMTP send.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Port > 0 && s.Username != "" && s.Password != "" && s.To != ""
}

// Load reads configuration from the environment, applying defaults where
// unset, and validates it. A missing OPENWEATHER_API_KEY is a hard error:
// the service must fail at startup, not discover it mid-cycle.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is normal in deployment.
	_ = godotenv.Load()

	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	retryDelay, err := envDuration("FETCH_RETRY_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := envDuration("POLL_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := envInt("FETCH_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	smtpPort, err := envInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		City: envOrDefault("CITY", "Gaborone"),

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: envOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		FetchTimeout:       fetchTimeout,
		FetchMaxAttempts:   maxAttempts,
		FetchRetryDelay:    retryDelay,

		PollInterval: pollInterval,

		DatabasePath: envOrDefault("DATABASE_PATH", "floodwatch.db"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SMTP: SMTPConfig{
			Host:     envOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOrDefault("SMTP_FROM", os.Getenv("SMTP_USERNAME")),
			To:       os.Getenv("SMTP_TO"),
		},
		Thresholds: thresholds,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OpenWeatherAPIKey == "" {
		return errors.New("OPENWEATHER_API_KEY is required")
	}
	if c.City == "" {
		return errors.New("CITY must not be empty")
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.FetchMaxAttempts < 1 {
		return errors.New("FETCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	return nil
}

// loadThresholds starts from the Gaborone defaults and applies any per-level
// overrides from the environment.
func loadThresholds() (domain.Thresholds, error) {
	t := domain.DefaultThresholds()

	overrides := []struct {
		key string
		dst *float64
	}{
		{"THRESHOLD_HOURLY_ADVISORY_MM", &t.HourlyAdvisory},
		{"THRESHOLD_HOURLY_WATCH_MM", &t.HourlyWatch},
		{"THRESHOLD_HOURLY_WARNING_MM", &t.HourlyWarning},
		{"THRESHOLD_DAILY_ADVISORY_MM", &t.DailyAdvisory},
		{"THRESHOLD_DAILY_WATCH_MM", &t.DailyWatch},
		{"THRESHOLD_DAILY_WARNING_MM", &t.DailyWarning},
		{"MIN_SIGNIFICANT_DAILY_MM", &t.MinSignificantDaily},
	}
	for _, o := range overrides {
		v, err := envFloat(o.key, *o.dst)
		if err != nil {
			return domain.Thresholds{}, err
		}
		*o.dst = v
	}
	return t, nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envFloat(key string, defaultValue float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}
