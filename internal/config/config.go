package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote finance service
	APIURL         string
	APITimeout     time.Duration
	UploadTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	// Backend selection
	DataBackend    string
	SessionBackend string

	// Session persistence
	SQLiteDBPath string

	// Notification relay (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sync
	ForecastDays  int
	SavingsMonths int

	// Presentation-adjacent state
	NotifyTTL         time.Duration
	GoalPlanCacheTTL  time.Duration
	GoalPlanCacheSize int
	Currency          string

	// Logging
	LogLevel string

	// CLI login
	Username string
	Password string
}

var (
	validDataBackends    = []string{"rest", "memory"}
	validSessionBackends = []string{"memory", "sqlite"}
	validCurrencies      = []string{"USD", "INR", "EUR", "GBP", "JPY"}
)

func Load() *Config {
	return &Config{
		APIURL:         getEnv("API_URL", "http://localhost:8000"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 15*time.Second),
		UploadTimeout:  getEnvDuration("UPLOAD_TIMEOUT", 60*time.Second),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		DataBackend:    getEnv("DATA_BACKEND", "rest"),
		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/finboard.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		ForecastDays:  getEnvInt("FORECAST_DAYS", 30),
		SavingsMonths: getEnvInt("SAVINGS_MONTHS", 12),

		NotifyTTL:         getEnvDuration("NOTIFY_TTL", 3*time.Second),
		GoalPlanCacheTTL:  getEnvDuration("GOAL_PLAN_CACHE_TTL", 5*time.Minute),
		GoalPlanCacheSize: getEnvInt("GOAL_PLAN_CACHE_SIZE", 64),
		Currency:          strings.ToUpper(getEnv("CURRENCY", "USD")),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		Username: getEnv("FINBOARD_USERNAME", ""),
		Password: getEnv("FINBOARD_PASSWORD", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !contains(validDataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validDataBackends))
	}

	// API URL is only needed when talking to the real service
	if c.DataBackend == "rest" {
		if c.APIURL == "" {
			errors = append(errors, "API URL cannot be empty when using rest backend")
		} else if parsedURL, err := url.Parse(c.APIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	}
	if c.UploadTimeout < c.APITimeout {
		errors = append(errors, fmt.Sprintf("invalid upload timeout %v: must not be shorter than API timeout %v", c.UploadTimeout, c.APITimeout))
	}
	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if !contains(validSessionBackends, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validSessionBackends))
	}

	// Validate SQLite configuration if the session is persisted
	if c.SessionBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite session backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ForecastDays < 1 || c.ForecastDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid forecast days %d: must be between 1 and 365", c.ForecastDays))
	}
	if c.SavingsMonths < 1 || c.SavingsMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid savings months %d: must be between 1 and 120", c.SavingsMonths))
	}

	if c.NotifyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid notification ttl %v: must be positive", c.NotifyTTL))
	}
	if c.GoalPlanCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid goal plan cache size %d: must be at least 1", c.GoalPlanCacheSize))
	}
	if c.GoalPlanCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid goal plan cache ttl %v: must be positive", c.GoalPlanCacheTTL))
	}

	if !contains(validCurrencies, c.Currency) {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be one of %v", c.Currency, validCurrencies))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
