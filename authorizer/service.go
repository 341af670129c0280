package authorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/check"
	"github.com/LerianStudio/lib-authorizer/authorizer/config"
	"github.com/LerianStudio/lib-authorizer/authorizer/ledger"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
	"github.com/LerianStudio/lib-authorizer/authorizer/processor"
	"github.com/LerianStudio/lib-authorizer/authorizer/redis"
	"github.com/LerianStudio/lib-authorizer/authorizer/runtime"
	"github.com/LerianStudio/lib-authorizer/authorizer/safe"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
	"github.com/LerianStudio/lib-authorizer/authorizer/zap"
)

// ErrCardExists is returned by CloneCard when the target number is taken.
var ErrCardExists = errors.New("card already exists")

// Service is an assembled authorizer.
type Service struct {
	logger    log.Logger
	store     card.Store
	closeFn   func() error
	ledger    *ledger.Ledger
	processor *processor.Processor
}

type options struct {
	logger   log.Logger
	meter    metric.Meter
	now      func() time.Time
	observer processor.StateObserver
}

// Option configures NewService.
type Option func(*options)

// WithLogger replaces the zap logger built from the config.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeter replaces the global OpenTelemetry meter.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClock replaces time.Now for the processor and the expiration check.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithStateObserver receives every authorization state transition.
func WithStateObserver(observer processor.StateObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// NewService builds every component described by cfg. Close releases them.
func NewService(ctx context.Context, cfg config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		built, err := zap.New(zap.Config{
			Environment:     zap.Environment(cfg.EnvName),
			Level:           cfg.LogLevel,
			OTelLibraryName: cfg.OTelLibraryName,
		})
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}

		logger = built
	}

	meter := o.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(cfg.OTelLibraryName)
	}

	factory, err := metrics.NewMetricsFactory(meter, logger)
	if err != nil {
		return nil, fmt.Errorf("build metrics: %w", err)
	}

	store, closeFn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	svc := &Service{logger: logger, store: store, closeFn: closeFn}

	if cfg.SeedDemoCards {
		if err := card.Seed(ctx, store, card.DemoCards(o.now())...); err != nil {
			_ = svc.closeFn()
			return nil, err
		}
	}

	svc.ledger = ledger.New(store, ledger.WithLogger(logger), ledger.WithMetrics(factory))

	checks, err := buildChecks(cfg, store, svc.ledger, o.now)
	if err != nil {
		_ = svc.closeFn()
		return nil, err
	}

	svc.processor, err = processor.New(checks, svc.ledger,
		processor.WithLogger(logger),
		processor.WithMetrics(factory),
		processor.WithClock(o.now),
		processor.WithPanicHandler(runtime.NewPanicHandler(logger, factory, cfg.Production())),
		processor.WithStateObserver(o.observer),
		processor.WithProduction(cfg.Production()),
	)
	if err != nil {
		_ = svc.closeFn()
		return nil, err
	}

	logger.Log(ctx, log.LevelInfo, "authorizer ready",
		log.String("card_store", cfg.CardStore), log.Bool("demo_cards", cfg.SeedDemoCards))

	return svc, nil
}

func openStore(ctx context.Context, cfg config.Config, logger log.Logger) (card.Store, func() error, error) {
	if cfg.CardStore != config.StoreRedis {
		return card.NewMemoryStore(), func() error { return nil }, nil
	}

	store, err := redis.NewCardStore(ctx, redis.Config{
		Address:   cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.RedisKeyPrefix,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open card store: %w", err)
	}

	return store, store.Close, nil
}

func buildChecks(cfg config.Config, store card.Store, l *ledger.Ledger, now func() time.Time) (processor.Checks, error) {
	blockedCards, err := safe.NewRules(cfg.BlockedCardPattern)
	if err != nil {
		return processor.Checks{}, err
	}

	blockedMerchants, err := safe.NewRules(cfg.BlockedMerchantPattern)
	if err != nil {
		return processor.Checks{}, err
	}

	latency := func(ms int) check.Latency {
		return check.Latency{Base: config.Millis(ms), Jitter: config.Millis(cfg.CheckJitterMs)}
	}

	return processor.Checks{
		Card:       check.NewCardLookup(store, latency(cfg.CardCheckDelayMs), blockedCards),
		Merchant:   check.NewMerchant(latency(cfg.MerchantCheckDelayMs), blockedMerchants),
		Expiration: check.NewExpiration(latency(cfg.ExpirationCheckDelayMs), now),
		PIN:        check.NewPIN(latency(cfg.PINCheckDelayMs)),
		Balance:    check.NewBalance(l, latency(cfg.BalanceCheckDelayMs)),
	}, nil
}

// Authorize validates req and, when every check passes, debits the card.
func (s *Service) Authorize(ctx context.Context, req transaction.Request) (transaction.Result, error) {
	return s.processor.ProcessTransaction(ctx, req)
}

// Balance returns the stored balance of a card, ignoring reservations.
func (s *Service) Balance(ctx context.Context, cardNumber string) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, cardNumber)
}

// Balances returns the stored balance of every card.
func (s *Service) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	return s.ledger.Balances(ctx)
}

// SetBalance overwrites the balance of an existing card.
func (s *Service) SetBalance(ctx context.Context, cardNumber string, amount decimal.Decimal) error {
	return s.ledger.SetBalance(ctx, cardNumber, amount)
}

// Cards lists every stored card.
func (s *Service) Cards(ctx context.Context) ([]card.Card, error) {
	return s.store.FindAll(ctx)
}

// CloneCard stores a copy of card from under the number to. An existing
// card is never overwritten, since it may hold reservations.
func (s *Service) CloneCard(ctx context.Context, from, to string) (card.Card, error) {
	exists, err := s.store.Exists(ctx, to)
	if err != nil {
		return card.Card{}, fmt.Errorf("clone card: %w", err)
	}

	if exists {
		return card.Card{}, fmt.Errorf("clone card %s: %w", log.MaskCardNumber(to), ErrCardExists)
	}

	cloned, err := card.Clone(ctx, s.store, from, to)
	if err != nil {
		return card.Card{}, err
	}

	s.logger.Log(ctx, log.LevelInfo, "card cloned", log.CardNumber(from), log.String("clone", log.MaskCardNumber(to)))

	return cloned, nil
}

// Close flushes the logger and closes the card store.
func (s *Service) Close(ctx context.Context) error {
	// Syncing stderr fails with EINVAL on Linux; nothing to act on.
	_ = s.logger.Sync(ctx)

	return s.closeFn()
}
