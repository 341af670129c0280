package check

import (
	"context"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// Reserver places a hold on the request amount. ledger.Ledger implements it.
type Reserver interface {
	Validate(ctx context.Context, req transaction.Request) (Result, error)
}

// Balance reserves the amount after the simulated latency. The reservation
// itself does not wait, so no lock is held while sleeping.
type Balance struct {
	reserver Reserver
	latency  Latency
}

var _ CardCheck = (*Balance)(nil)

// NewBalance creates a balance check delegating to reserver.
func NewBalance(reserver Reserver, latency Latency) *Balance {
	return &Balance{reserver: reserver, latency: latency}
}

// Validate waits the latency, then reserves the amount.
func (b *Balance) Validate(ctx context.Context, req transaction.Request, _ card.Card) (Result, error) {
	if err := b.latency.Wait(ctx); err != nil {
		return nil, err
	}

	return b.reserver.Validate(ctx, req)
}
