package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/safe"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// CardLookup resolves the request's card and rejects blocklisted numbers.
type CardLookup struct {
	store   card.Store
	latency Latency
	blocked safe.Rules
}

// NewCardLookup creates the card lookup over store.
func NewCardLookup(store card.Store, latency Latency, blocked safe.Rules) *CardLookup {
	return &CardLookup{store: store, latency: latency, blocked: blocked}
}

// Validate resolves the request card. Store errors other than
// card.ErrNotFound are returned as errors, not failures.
func (c *CardLookup) Validate(ctx context.Context, req transaction.Request) (CardResult, error) {
	if err := c.latency.Wait(ctx); err != nil {
		return nil, err
	}

	if _, blocked := c.blocked.Match(req.CardNumber); blocked {
		return CardFailure{Code: transaction.ErrorCardIneligible, Message: MsgCardInvalid}, nil
	}

	found, err := c.store.Get(ctx, req.CardNumber)
	if errors.Is(err, card.ErrNotFound) {
		return CardFailure{Code: transaction.ErrorCardNotFound, Message: MsgCardNotFound}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("card lookup: %w", err)
	}

	return CardSuccess{Card: found}, nil
}
