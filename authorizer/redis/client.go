package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/LerianStudio/lib-authorizer/authorizer/backoff"
	"github.com/LerianStudio/lib-authorizer/authorizer/circuitbreaker"
	constant "github.com/LerianStudio/lib-authorizer/authorizer/constants"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
)

const (
	defaultConnectAttempts = 5
	defaultConnectBackoff  = 200 * time.Millisecond
	defaultTimeout         = 3 * time.Second
)

// ErrInvalidConfig indicates the provided redis configuration is invalid.
var ErrInvalidConfig = errors.New("invalid redis config")

// Config defines the connection, key layout and breaker of a CardStore.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxRetries is passed to go-redis; -1 disables its retries.
	MaxRetries int

	// ConnectAttempts bounds the initial PING loop.
	ConnectAttempts int
	ConnectBackoff  time.Duration

	// Breaker defaults to circuitbreaker.StoreConfig when zero.
	Breaker circuitbreaker.Config
	Logger  log.Logger
}

// String returns a redacted representation to prevent accidental credential logging.
func (c Config) String() string {
	return fmt.Sprintf("redis.Config{Address:%s, DB:%d, KeyPrefix:%q, Password:REDACTED}", c.Address, c.DB, c.KeyPrefix)
}

// GoString returns a redacted representation for fmt %#v.
func (c Config) GoString() string { return c.String() }

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.Address == "" {
		return Config{}, fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}

	if cfg.DB < 0 {
		return Config{}, fmt.Errorf("%w: db must be non-negative", ErrInvalidConfig)
	}

	cfg.Logger = log.OrNop(cfg.Logger)

	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultTimeout
	}

	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultTimeout
	}

	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultTimeout
	}

	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = defaultConnectAttempts
	}

	if cfg.ConnectBackoff <= 0 {
		cfg.ConnectBackoff = defaultConnectBackoff
	}

	if cfg.Breaker == (circuitbreaker.Config{}) {
		cfg.Breaker = circuitbreaker.StoreConfig()
	}

	return cfg, nil
}

// connect opens a client and checks it with PING, retrying with jittered
// exponential backoff.
func connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.connect")
	defer span.End()

	span.SetAttributes(attribute.String(constant.AttrDBSystem, constant.DBSystemRedis))

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	cfg.Logger.Log(ctx, log.LevelInfo, "connecting to Redis/Valkey", log.String("address", cfg.Address))

	err := backoff.Retry(ctx, cfg.ConnectAttempts, cfg.ConnectBackoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			cfg.Logger.Log(ctx, log.LevelWarn, "redis ping failed", log.Err(err))
			return err
		}

		return nil
	})
	if err != nil {
		_ = client.Close()

		handleSpanError(span, "Failed to connect to redis", err)

		return nil, fmt.Errorf("redis connect: %w", err)
	}

	cfg.Logger.Log(ctx, log.LevelInfo, "connected to Redis/Valkey")

	return client, nil
}

func handleSpanError(span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}
