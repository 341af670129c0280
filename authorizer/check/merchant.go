package check

import (
	"context"

	"github.com/LerianStudio/lib-authorizer/authorizer/safe"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// Merchant rejects merchants matching a block rule.
type Merchant struct {
	latency Latency
	blocked safe.Rules
}

var _ Check = (*Merchant)(nil)

// NewMerchant creates a merchant check that declines names matching blocked.
func NewMerchant(latency Latency, blocked safe.Rules) *Merchant {
	return &Merchant{latency: latency, blocked: blocked}
}

// Validate waits the latency and declines blocked merchants with 0022.
func (m *Merchant) Validate(ctx context.Context, req transaction.Request) (Result, error) {
	if err := m.latency.Wait(ctx); err != nil {
		return nil, err
	}

	if _, blocked := m.blocked.Match(req.Merchant); blocked {
		return Failure{Code: transaction.ErrorMerchantBlocked, Message: MsgMerchantBlocked}, nil
	}

	return Success{Message: MsgMerchantOK}, nil
}
