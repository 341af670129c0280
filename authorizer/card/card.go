package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no card is stored under a number.
var ErrNotFound = errors.New("card not found")

// Card is a stored card. It is replaced, never mutated: use the With
// helpers and Store.Put.
type Card struct {
	Number         string          `json:"cardNumber"`
	ExpirationDate string          `json:"expirationDate"`
	PIN            string          `json:"pin"`
	Balance        decimal.Decimal `json:"balance"`
	Description    string          `json:"description"`
}

// WithBalance returns a copy of c with balance.
func (c Card) WithBalance(balance decimal.Decimal) Card {
	c.Balance = balance
	return c
}

// WithNumber returns a copy of c stored under number.
func (c Card) WithNumber(number string) Card {
	c.Number = number
	return c
}

// Store is a concurrency-safe card registry keyed by card number.
type Store interface {
	// Get returns ErrNotFound when number is unknown.
	Get(ctx context.Context, number string) (Card, error)
	// Put inserts or replaces the card stored under c.Number.
	Put(ctx context.Context, c Card) (Card, error)
	FindAll(ctx context.Context) ([]Card, error)
	Delete(ctx context.Context, number string) error
	Exists(ctx context.Context, number string) (bool, error)
}

// Clone stores a copy of the card from under the number to.
func Clone(ctx context.Context, store Store, from, to string) (Card, error) {
	original, err := store.Get(ctx, from)
	if err != nil {
		return Card{}, fmt.Errorf("clone %s: %w", from, err)
	}

	return store.Put(ctx, original.WithNumber(to))
}

// Seed puts every card into store.
func Seed(ctx context.Context, store Store, cards ...Card) error {
	for _, c := range cards {
		if _, err := store.Put(ctx, c); err != nil {
			return fmt.Errorf("seed card: %w", err)
		}
	}

	return nil
}
