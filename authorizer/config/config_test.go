//go:build unit

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenvOrDefault(t *testing.T) {
	t.Setenv("AUTHORIZER_TEST_VALUE", "value")
	t.Setenv("AUTHORIZER_TEST_BLANK", "   ")

	assert.Equal(t, "value", GetenvOrDefault("AUTHORIZER_TEST_VALUE", "default"))
	assert.Equal(t, "default", GetenvOrDefault("AUTHORIZER_TEST_BLANK", "default"))
	assert.Equal(t, "default", GetenvOrDefault("AUTHORIZER_TEST_UNSET_XYZ", "default"))
}

func TestGetenvBoolOrDefault(t *testing.T) {
	t.Setenv("AUTHORIZER_TEST_TRUE", "true")
	t.Setenv("AUTHORIZER_TEST_FALSE", "false")
	t.Setenv("AUTHORIZER_TEST_BAD_BOOL", "not-a-bool")

	assert.True(t, GetenvBoolOrDefault("AUTHORIZER_TEST_TRUE", false))
	assert.False(t, GetenvBoolOrDefault("AUTHORIZER_TEST_FALSE", true))
	assert.True(t, GetenvBoolOrDefault("AUTHORIZER_TEST_BAD_BOOL", true), "invalid bool should return default")
	assert.True(t, GetenvBoolOrDefault("AUTHORIZER_TEST_UNSET_XYZ", true))
}

func TestGetenvIntOrDefault(t *testing.T) {
	t.Setenv("AUTHORIZER_TEST_INT", "-100")
	t.Setenv("AUTHORIZER_TEST_BAD_INT", "ten")

	assert.Equal(t, int64(-100), GetenvIntOrDefault("AUTHORIZER_TEST_INT", 0))
	assert.Equal(t, int64(99), GetenvIntOrDefault("AUTHORIZER_TEST_BAD_INT", 99))
	assert.Equal(t, int64(99), GetenvIntOrDefault("AUTHORIZER_TEST_UNSET_XYZ", 99))
}

func TestSetConfigFromEnvVars(t *testing.T) {
	type target struct {
		StringField string `env:"AUTHORIZER_TEST_STRING_FIELD"`
		BoolField   bool   `env:"AUTHORIZER_TEST_BOOL_FIELD"`
		IntField    int64  `env:"AUTHORIZER_TEST_INT_FIELD"`
		Kept        string `env:"AUTHORIZER_TEST_UNSET_FIELD_XYZ"`
		Untagged    string
	}

	t.Setenv("AUTHORIZER_TEST_STRING_FIELD", "test-value")
	t.Setenv("AUTHORIZER_TEST_BOOL_FIELD", "true")
	t.Setenv("AUTHORIZER_TEST_INT_FIELD", "123")

	cfg := &target{Kept: "preset", Untagged: "untouched"}
	require.NoError(t, SetConfigFromEnvVars(cfg))

	assert.Equal(t, "test-value", cfg.StringField)
	assert.True(t, cfg.BoolField)
	assert.Equal(t, int64(123), cfg.IntField)
	assert.Equal(t, "preset", cfg.Kept)
	assert.Equal(t, "untouched", cfg.Untagged)
}

func TestSetConfigFromEnvVarsErrors(t *testing.T) {
	type target struct {
		IntField int `env:"AUTHORIZER_TEST_INT_FIELD"`
	}

	assert.ErrorIs(t, SetConfigFromEnvVars(target{}), ErrNotPointer)
	assert.ErrorIs(t, SetConfigFromEnvVars((*target)(nil)), ErrNotPointer)

	t.Setenv("AUTHORIZER_TEST_INT_FIELD", "twelve")

	err := SetConfigFromEnvVars(&target{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTHORIZER_TEST_INT_FIELD")
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100*time.Millisecond, Millis(cfg.CardCheckDelayMs))
	assert.Equal(t, 600*time.Millisecond, Millis(cfg.BalanceCheckDelayMs))
	assert.False(t, cfg.Production())
}

func TestLoadFromEnvironmentAndFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "authorizer.env")
	require.NoError(t, os.WriteFile(file, []byte("REDIS_ADDR=localhost:6379\nPIN_CHECK_DELAY_MS=5\n"), 0o600))

	t.Setenv("ENV_NAME", "production")
	t.Setenv("CARD_STORE", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SEED_DEMO_CARDS", "false")
	t.Setenv("BLOCKED_MERCHANT_PATTERN", "^FRAUD")
	// godotenv never overrides variables that are already set.
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PIN_CHECK_DELAY_MS", "")
	require.NoError(t, os.Unsetenv("REDIS_ADDR"))
	require.NoError(t, os.Unsetenv("PIN_CHECK_DELAY_MS"))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, StoreRedis, cfg.CardStore)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5, cfg.PINCheckDelayMs)
	assert.False(t, cfg.SeedDemoCards)
	assert.Equal(t, "^FRAUD", cfg.BlockedMerchantPattern)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "environment", modify: func(c *Config) { c.EnvName = "qa" }},
		{name: "store", modify: func(c *Config) { c.CardStore = "postgres" }},
		{name: "redis address", modify: func(c *Config) { c.CardStore = StoreRedis }},
		{name: "redis db", modify: func(c *Config) { c.CardStore, c.RedisAddr, c.RedisDB = StoreRedis, "localhost:6379", -1 }},
		{name: "negative delay", modify: func(c *Config) { c.MerchantCheckDelayMs = -1 }},
		{name: "pattern", modify: func(c *Config) { c.BlockedCardPattern = "([" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARD_CHECK_DELAY_MS", "soon")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStringRedactsPassword(t *testing.T) {
	cfg := Default()
	cfg.RedisPassword = "s3cret"

	assert.NotContains(t, cfg.String(), "s3cret")
	assert.Contains(t, cfg.String(), "REDACTED")
}
