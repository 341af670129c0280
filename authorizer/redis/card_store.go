package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/circuitbreaker"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
)

// CardStore is a card.Store backed by Redis.
type CardStore struct {
	client  *redis.Client
	prefix  string
	breaker *circuitbreaker.Breaker
	logger  log.Logger
}

var _ card.Store = (*CardStore)(nil)

// NewCardStore validates cfg and connects. The returned store must be closed.
func NewCardStore(ctx context.Context, cfg Config) (*CardStore, error) {
	normalized, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := connect(ctx, normalized)
	if err != nil {
		return nil, err
	}

	breaker := circuitbreaker.New("redis-card-store", normalized.Breaker,
		circuitbreaker.WithLogger(normalized.Logger),
		circuitbreaker.WithSuccessful(func(err error) bool { return errors.Is(err, redis.Nil) }),
	)

	return &CardStore{client: client, prefix: normalized.KeyPrefix, breaker: breaker, logger: normalized.Logger}, nil
}

func (s *CardStore) cardKey(number string) string {
	return s.prefix + "card:" + number
}

func (s *CardStore) indexKey() string {
	return s.prefix + "cards"
}

// Breaker exposes the breaker state for health reporting.
func (s *CardStore) Breaker() *circuitbreaker.Breaker {
	return s.breaker
}

// Get returns card.ErrNotFound when no document is stored under number.
func (s *CardStore) Get(ctx context.Context, number string) (card.Card, error) {
	raw, err := s.breaker.Execute(func() (any, error) {
		return s.client.Get(ctx, s.cardKey(number)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return card.Card{}, card.ErrNotFound
	}

	if err != nil {
		return card.Card{}, fmt.Errorf("redis get card: %w", err)
	}

	return decode(raw.([]byte))
}

// Put stores c and adds it to the index in one transaction.
func (s *CardStore) Put(ctx context.Context, c card.Card) (card.Card, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return card.Card{}, fmt.Errorf("encode card: %w", err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.cardKey(c.Number), payload, 0)
			pipe.SAdd(ctx, s.indexKey(), c.Number)

			return nil
		})
	})
	if err != nil {
		return card.Card{}, fmt.Errorf("redis put card: %w", err)
	}

	return c, nil
}

// FindAll returns the indexed cards ordered by number. Index entries whose
// document is gone are skipped.
func (s *CardStore) FindAll(ctx context.Context) ([]card.Card, error) {
	members, err := s.breaker.Execute(func() (any, error) {
		return s.client.SMembers(ctx, s.indexKey()).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("redis list cards: %w", err)
	}

	numbers := members.([]string)
	if len(numbers) == 0 {
		return []card.Card{}, nil
	}

	sort.Strings(numbers)

	keys := make([]string, len(numbers))
	for i, number := range numbers {
		keys[i] = s.cardKey(number)
	}

	values, err := s.breaker.Execute(func() (any, error) {
		return s.client.MGet(ctx, keys...).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("redis list cards: %w", err)
	}

	out := make([]card.Card, 0, len(numbers))

	for i, v := range values.([]any) {
		payload, ok := v.(string)
		if !ok {
			s.logger.Log(ctx, log.LevelWarn, "indexed card has no document", log.CardNumber(numbers[i]))
			continue
		}

		c, err := decode([]byte(payload))
		if err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, nil
}

// Delete removes the document and its index entry.
func (s *CardStore) Delete(ctx context.Context, number string) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.cardKey(number))
			pipe.SRem(ctx, s.indexKey(), number)

			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("redis delete card: %w", err)
	}

	return nil
}

// Exists reports whether a document is stored under number.
func (s *CardStore) Exists(ctx context.Context, number string) (bool, error) {
	n, err := s.breaker.Execute(func() (any, error) {
		return s.client.Exists(ctx, s.cardKey(number)).Result()
	})
	if err != nil {
		return false, fmt.Errorf("redis card exists: %w", err)
	}

	return n.(int64) > 0, nil
}

// Close releases the connection pool.
func (s *CardStore) Close() error {
	return s.client.Close()
}

func decode(payload []byte) (card.Card, error) {
	var c card.Card
	if err := json.Unmarshal(payload, &c); err != nil {
		return card.Card{}, fmt.Errorf("decode card: %w", err)
	}

	return c, nil
}
