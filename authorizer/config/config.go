package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	constant "github.com/LerianStudio/lib-authorizer/authorizer/constants"
	"github.com/LerianStudio/lib-authorizer/authorizer/safe"
)

// Card store backends.
const (
	// StoreMemory keeps cards in process memory.
	StoreMemory = "memory"
	// StoreRedis keeps cards in Redis, shared across instances.
	StoreRedis  = "redis"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every authorizer setting. Fields are read from the env key in
// their env tag.
type Config struct {
	EnvName         string `env:"ENV_NAME"`
	LogLevel        string `env:"LOG_LEVEL"`
	OTelLibraryName string `env:"OTEL_LIBRARY_NAME"`

	CardStore      string `env:"CARD_STORE"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX"`

	CardCheckDelayMs       int `env:"CARD_CHECK_DELAY_MS"`
	ExpirationCheckDelayMs int `env:"EXPIRATION_CHECK_DELAY_MS"`
	PINCheckDelayMs        int `env:"PIN_CHECK_DELAY_MS"`
	MerchantCheckDelayMs   int `env:"MERCHANT_CHECK_DELAY_MS"`
	BalanceCheckDelayMs    int `env:"BALANCE_CHECK_DELAY_MS"`
	CheckJitterMs          int `env:"CHECK_JITTER_MS"`

	BlockedCardPattern     string `env:"BLOCKED_CARD_PATTERN"`
	BlockedMerchantPattern string `env:"BLOCKED_MERCHANT_PATTERN"`

	SeedDemoCards bool `env:"SEED_DEMO_CARDS"`
}

// String returns a redacted representation to prevent accidental credential logging.
func (c Config) String() string {
	redacted := c
	if redacted.RedisPassword != "" {
		redacted.RedisPassword = "REDACTED"
	}

	type plain Config

	return fmt.Sprintf("%+v", plain(redacted))
}

// Default returns the development configuration with the demo delays.
func Default() Config {
	return Config{
		EnvName:                "development",
		OTelLibraryName:        "lib-authorizer",
		CardStore:              StoreMemory,
		RedisKeyPrefix:         "authorizer:",
		CardCheckDelayMs:       int(constant.CardCheckDelay.Milliseconds()),
		ExpirationCheckDelayMs: int(constant.ExpirationCheckDelay.Milliseconds()),
		PINCheckDelayMs:        int(constant.PINCheckDelay.Milliseconds()),
		MerchantCheckDelayMs:   int(constant.MerchantCheckDelay.Milliseconds()),
		BalanceCheckDelayMs:    int(constant.BalanceCheckDelay.Milliseconds()),
		BlockedCardPattern:     constant.DefaultBlockedCardPattern,
		BlockedMerchantPattern: constant.DefaultBlockedMerchantPattern,
		SeedDemoCards:          true,
	}
}

// Load reads files (".env" when none is given) if they exist, then the
// environment, and validates the result.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()
	if err := SetConfigFromEnvVars(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks names, store settings, delays and block patterns.
func (c Config) Validate() error {
	switch c.EnvName {
	case "production", "staging", "development", "local":
	default:
		return fmt.Errorf("%w: unknown ENV_NAME %q", ErrInvalidConfig, c.EnvName)
	}

	switch c.CardStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required for the redis card store", ErrInvalidConfig)
		}

		if c.RedisDB < 0 {
			return fmt.Errorf("%w: REDIS_DB must be non-negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: CARD_STORE must be %q or %q", ErrInvalidConfig, StoreMemory, StoreRedis)
	}

	delays := map[string]int{
		"CARD_CHECK_DELAY_MS":       c.CardCheckDelayMs,
		"EXPIRATION_CHECK_DELAY_MS": c.ExpirationCheckDelayMs,
		"PIN_CHECK_DELAY_MS":        c.PINCheckDelayMs,
		"MERCHANT_CHECK_DELAY_MS":   c.MerchantCheckDelayMs,
		"BALANCE_CHECK_DELAY_MS":    c.BalanceCheckDelayMs,
		"CHECK_JITTER_MS":           c.CheckJitterMs,
	}

	for key, ms := range delays {
		if ms < 0 {
			return fmt.Errorf("%w: %s must be non-negative", ErrInvalidConfig, key)
		}
	}

	for key, pattern := range map[string]string{
		"BLOCKED_CARD_PATTERN":     c.BlockedCardPattern,
		"BLOCKED_MERCHANT_PATTERN": c.BlockedMerchantPattern,
	} {
		if _, err := safe.NewRules(pattern); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
		}
	}

	return nil
}

// Production reports whether error details must be kept out of logs.
func (c Config) Production() bool {
	return c.EnvName == "production"
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
