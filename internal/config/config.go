package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Ledger
	HorizonURL        string
	NetworkPassphrase string
	MinimumReserve    decimal.Decimal
	FeePercent        decimal.Decimal

	// Batching
	BatchSize  int
	BatchDelay time.Duration

	// Submission
	SubmitTimeout time.Duration

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	minReserve, err := decimal.NewFromString(getEnv("MINIMUM_RESERVE", "0.01"))
	if err != nil {
		return nil, fmt.Errorf("invalid MINIMUM_RESERVE: %w", err)
	}

	feePercent, err := decimal.NewFromString(getEnv("FEE_PERCENT", "0.01"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEE_PERCENT: %w", err)
	}

	batchSize, err := getEnvInt("BATCH_SIZE", 6)
	if err != nil {
		return nil, err
	}

	batchDelayMs, err := getEnvInt("BATCH_DELAY_MS", 100)
	if err != nil {
		return nil, err
	}

	submitTimeoutSec, err := getEnvInt("SUBMIT_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}

	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HorizonURL:         getEnv("HORIZON_URL", ""),
		NetworkPassphrase:  getEnv("NETWORK_PASSPHRASE", ""),
		MinimumReserve:     minReserve,
		FeePercent:         feePercent,
		BatchSize:          batchSize,
		BatchDelay:         time.Duration(batchDelayMs) * time.Millisecond,
		SubmitTimeout:      time.Duration(submitTimeoutSec) * time.Second,
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		RateLimitPerMinute: rateLimit,
		RateLimitBurst:     rateBurst,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.HorizonURL == "" {
		return fmt.Errorf("HORIZON_URL is required")
	}
	if c.NetworkPassphrase == "" {
		return fmt.Errorf("NETWORK_PASSPHRASE is required")
	}
	if c.FeePercent.IsNegative() || c.FeePercent.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("FEE_PERCENT must be in [0,1)")
	}
	if c.MinimumReserve.IsNegative() {
		return fmt.Errorf("MINIMUM_RESERVE must not be negative")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
