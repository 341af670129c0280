package check

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// mmyy is the MMYY layout of expiration dates.
const mmyy = "0106"

// Expiration checks the request date against the stored card and the clock.
type Expiration struct {
	latency Latency
	now     func() time.Time
}

var _ CardCheck = (*Expiration)(nil)

// NewExpiration uses time.Now when now is nil.
func NewExpiration(latency Latency, now func() time.Time) *Expiration {
	if now == nil {
		now = time.Now
	}

	return &Expiration{latency: latency, now: now}
}

// Validate compares the request date with the card date and the clock.
func (e *Expiration) Validate(ctx context.Context, req transaction.Request, c card.Card) (Result, error) {
	if err := e.latency.Wait(ctx); err != nil {
		return nil, err
	}

	requested, ok := parseMMYY(req.ExpirationDate)
	if !ok {
		return Failure{Code: transaction.ErrorInvalidInput, Message: MsgExpirationFormat}, nil
	}

	stored, ok := parseMMYY(c.ExpirationDate)
	if !ok {
		return Failure{Code: transaction.ErrorInternal, Message: MsgExpirationCardFormat}, nil
	}

	if requested != stored {
		return Failure{Code: transaction.ErrorCardIneligible, Message: MsgExpirationMismatch}, nil
	}

	if stored < monthIndex(e.now()) {
		return Failure{Code: transaction.ErrorCardExpired, Message: MsgExpirationExpired}, nil
	}

	return Success{Message: MsgExpirationOK}, nil
}

// parseMMYY returns the month index (year*12 + month) of a MMYY date.
func parseMMYY(value string) (int, bool) {
	if len(value) != len(mmyy) {
		return 0, false
	}

	t, err := time.Parse(mmyy, value)
	if err != nil {
		return 0, false
	}

	return monthIndex(t), true
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
