package check

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-authorizer/authorizer/backoff"
	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// Check validates a request on its own.
type Check interface {
	Validate(ctx context.Context, req transaction.Request) (Result, error)
}

// CardCheck validates a request against the card resolved by CardLookup.
type CardCheck interface {
	Validate(ctx context.Context, req transaction.Request, c card.Card) (Result, error)
}

// Latency is the simulated duration of an external call: Base plus a random
// share of Jitter.
type Latency struct {
	Base   time.Duration
	Jitter time.Duration
}

// Wait blocks for the latency or until ctx is done.
func (l Latency) Wait(ctx context.Context) error {
	return backoff.SleepWithContext(ctx, l.Base+backoff.FullJitter(l.Jitter))
}
