//go:build unit

package check_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/check"
	"github.com/LerianStudio/lib-authorizer/authorizer/safe"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

var (
	instant = check.Latency{}
	forever = check.Latency{Base: time.Hour}
	today   = func() time.Time { return time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC) }
)

func request(number, expiration, pin, merchant string) transaction.Request {
	return transaction.NewRequest(number, expiration, pin, decimal.NewFromInt(100), merchant)
}

func cancelled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	return ctx
}

func mustRules(t *testing.T, patterns ...string) safe.Rules {
	t.Helper()

	rules, err := safe.NewRules(patterns...)
	require.NoError(t, err)

	return rules
}

type failingStore struct {
	card.Store
}

func (failingStore) Get(context.Context, string) (card.Card, error) {
	return card.Card{}, errors.New("connection reset")
}

func TestCardLookup(t *testing.T) {
	t.Parallel()

	store := card.NewMemoryStore(
		card.Card{Number: "4532-1234-5678-9012", ExpirationDate: "1029", PIN: "1234", Balance: decimal.NewFromInt(10)},
		card.Card{Number: "4000-0000-1234-5678", ExpirationDate: "1029", PIN: "1234"},
	)
	lookup := check.NewCardLookup(store, instant, mustRules(t, "0000"))

	tests := []struct {
		name    string
		number  string
		want    check.CardResult
		wantNum string
	}{
		{name: "found", number: "4532-1234-5678-9012", wantNum: "4532-1234-5678-9012"},
		{name: "blocked", number: "4000-0000-1234-5678", want: check.CardFailure{Code: transaction.ErrorCardIneligible, Message: check.MsgCardInvalid}},
		{name: "unknown", number: "4999-1111-2222-3333", want: check.CardFailure{Code: transaction.ErrorCardNotFound, Message: check.MsgCardNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := lookup.Validate(context.Background(), request(tt.number, "1029", "1234", "shop"))
			require.NoError(t, err)

			if tt.wantNum == "" {
				assert.Equal(t, tt.want, got)
				return
			}

			success, ok := got.(check.CardSuccess)
			require.True(t, ok)
			assert.Equal(t, tt.wantNum, success.Card.Number)
		})
	}
}

func TestCardLookupStoreError(t *testing.T) {
	t.Parallel()

	lookup := check.NewCardLookup(failingStore{}, instant, safe.Rules{})

	got, err := lookup.Validate(context.Background(), request("4532-1234-5678-9012", "1029", "1234", "shop"))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestExpiration(t *testing.T) {
	t.Parallel()

	expiration := check.NewExpiration(instant, today)

	tests := []struct {
		name      string
		requested string
		stored    string
		want      check.Result
	}{
		{name: "future", requested: "1029", stored: "1029", want: check.Success{Message: check.MsgExpirationOK}},
		{name: "current month", requested: "1026", stored: "1026", want: check.Success{Message: check.MsgExpirationOK}},
		{name: "expired", requested: "1223", stored: "1223", want: check.Failure{Code: transaction.ErrorCardExpired, Message: check.MsgExpirationExpired}},
		{name: "previous month", requested: "0926", stored: "0926", want: check.Failure{Code: transaction.ErrorCardExpired, Message: check.MsgExpirationExpired}},
		{name: "short", requested: "129", stored: "1029", want: check.Failure{Code: transaction.ErrorInvalidInput, Message: check.MsgExpirationFormat}},
		{name: "bad month", requested: "1329", stored: "1029", want: check.Failure{Code: transaction.ErrorInvalidInput, Message: check.MsgExpirationFormat}},
		{name: "letters", requested: "1a29", stored: "1029", want: check.Failure{Code: transaction.ErrorInvalidInput, Message: check.MsgExpirationFormat}},
		{name: "corrupt card", requested: "1029", stored: "10/29", want: check.Failure{Code: transaction.ErrorInternal, Message: check.MsgExpirationCardFormat}},
		{name: "mismatch", requested: "1129", stored: "1029", want: check.Failure{Code: transaction.ErrorCardIneligible, Message: check.MsgExpirationMismatch}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stored := card.Card{Number: "4532-1234-5678-9012", ExpirationDate: tt.stored}

			got, err := expiration.Validate(context.Background(), request(stored.Number, tt.requested, "1234", "shop"), stored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPIN(t *testing.T) {
	t.Parallel()

	pin := check.NewPIN(instant)
	stored := card.Card{Number: "4532-1234-5678-9012", PIN: "1234"}

	got, err := pin.Validate(context.Background(), request(stored.Number, "1029", "1234", "shop"), stored)
	require.NoError(t, err)
	assert.Equal(t, check.Success{Message: check.MsgPINOK}, got)

	for _, wrong := range []string{"9999", "12345", "123"} {
		got, err = pin.Validate(context.Background(), request(stored.Number, "1029", wrong, "shop"), stored)
		require.NoError(t, err)
		assert.Equal(t, check.Failure{Code: transaction.ErrorInvalidPIN, Message: check.MsgPINInvalid}, got, wrong)
	}
}

func TestMerchant(t *testing.T) {
	t.Parallel()

	merchant := check.NewMerchant(instant, mustRules(t, "(?i)blocked"))

	tests := []struct {
		merchant string
		blocked  bool
	}{
		{merchant: "Coffee Shop", blocked: false},
		{merchant: "BLOCKED_MERCHANT", blocked: true},
		{merchant: "some blocked store", blocked: true},
	}

	for _, tt := range tests {
		got, err := merchant.Validate(context.Background(), request("4532-1234-5678-9012", "1029", "1234", tt.merchant))
		require.NoError(t, err)

		if tt.blocked {
			assert.Equal(t, check.Failure{Code: transaction.ErrorMerchantBlocked, Message: check.MsgMerchantBlocked}, got, tt.merchant)
		} else {
			assert.Equal(t, check.Success{Message: check.MsgMerchantOK}, got, tt.merchant)
		}
	}
}

type recordingReserver struct {
	calls int
}

func (r *recordingReserver) Validate(context.Context, transaction.Request) (check.Result, error) {
	r.calls++
	return check.Success{Message: "reserved"}, nil
}

func TestBalanceDelegatesAfterLatency(t *testing.T) {
	t.Parallel()

	reserver := &recordingReserver{}
	balance := check.NewBalance(reserver, instant)

	got, err := balance.Validate(context.Background(), request("4532-1234-5678-9012", "1029", "1234", "shop"), card.Card{})
	require.NoError(t, err)
	assert.Equal(t, check.Success{Message: "reserved"}, got)
	assert.Equal(t, 1, reserver.calls)
}

func TestChecksStopOnCancellation(t *testing.T) {
	t.Parallel()

	reserver := &recordingReserver{}
	req := request("4532-1234-5678-9012", "1029", "1234", "shop")
	stored := card.Card{Number: req.CardNumber, ExpirationDate: "1029", PIN: "1234"}

	cardChecks := map[string]check.CardCheck{
		check.NameExpiration: check.NewExpiration(forever, today),
		check.NamePIN:        check.NewPIN(forever),
		check.NameBalance:    check.NewBalance(reserver, forever),
	}

	for name, c := range cardChecks {
		got, err := c.Validate(cancelled(), req, stored)
		require.ErrorIs(t, err, context.Canceled, name)
		assert.Nil(t, got, name)
	}

	got, err := check.NewMerchant(forever, safe.Rules{}).Validate(cancelled(), req)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)

	cardResult, err := check.NewCardLookup(card.NewMemoryStore(), forever, safe.Rules{}).Validate(cancelled(), req)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cardResult)

	assert.Zero(t, reserver.calls)
}

func TestLatencyInterruptedMidDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	err := forever.Wait(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestErr(t *testing.T) {
	t.Parallel()

	assert.NoError(t, check.Err(check.NamePIN, check.Success{}, nil))

	infra := errors.New("boom")
	assert.Same(t, infra, check.Err(check.NamePIN, nil, infra))

	err := check.Err(check.NamePIN, check.Failure{Code: transaction.ErrorInvalidPIN, Message: check.MsgPINInvalid}, nil)

	var failure *check.FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, check.NamePIN, failure.Check)
	assert.Equal(t, transaction.ErrorInvalidPIN, failure.Failure.Code)
	assert.Equal(t, check.MsgPINInvalid, err.Error())

	assert.Error(t, check.Err(check.NamePIN, nil, nil))
}
