package check

import (
	"context"
	"crypto/subtle"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// PIN compares the request PIN with the stored one in constant time.
type PIN struct {
	latency Latency
}

var _ CardCheck = (*PIN)(nil)

// NewPIN creates the PIN check.
func NewPIN(latency Latency) *PIN {
	return &PIN{latency: latency}
}

// Validate compares the PINs in constant time and declines with 0021.
func (p *PIN) Validate(ctx context.Context, req transaction.Request, c card.Card) (Result, error) {
	if err := p.latency.Wait(ctx); err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(req.PIN), []byte(c.PIN)) != 1 {
		return Failure{Code: transaction.ErrorInvalidPIN, Message: MsgPINInvalid}, nil
	}

	return Success{Message: MsgPINOK}, nil
}
