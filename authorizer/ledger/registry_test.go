//go:build unit

package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/check"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

func (l *Ledger) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.accounts)
}

func request(number, amount string) transaction.Request {
	return transaction.NewRequest(number, "1029", "1234", decimal.RequireFromString(amount), "Coffee Shop")
}

func TestUnknownCardsLeaveNoAccounts(t *testing.T) {
	t.Parallel()

	l := New(card.NewMemoryStore())
	ctx := context.Background()

	for i := range 10_000 {
		req := request(fmt.Sprintf("0000-0000-0000-%04d", i), "10")

		res, err := l.Validate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, transaction.ErrorCardNotFound, res.(check.Failure).Code)
		assert.False(t, l.Release(ctx, req))
		assert.True(t, l.Pending(req.CardNumber).IsZero())

		_, err = l.Available(ctx, req.CardNumber)
		assert.ErrorIs(t, err, card.ErrNotFound)
		assert.ErrorIs(t, l.Transfer(ctx, req, card.Card{Number: req.CardNumber}), ErrReservationNotFound)
	}

	assert.Zero(t, l.tracked())
}

func TestSettledCardsLeaveNoAccounts(t *testing.T) {
	t.Parallel()

	store := card.NewMemoryStore(card.DemoCards(time.Now())...)
	l := New(store)
	ctx := context.Background()

	released := request(card.ValidCard, "100")
	transferred := request(card.ValidCard, "200")
	declined := request(card.LowBalanceCard, "900")

	for _, req := range []transaction.Request{released, transferred, declined} {
		_, err := l.Validate(ctx, req)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, l.tracked())

	assert.True(t, l.Release(ctx, released))
	assert.Equal(t, 1, l.tracked())

	stored, err := store.Get(ctx, card.ValidCard)
	require.NoError(t, err)
	require.NoError(t, l.Transfer(ctx, transferred, stored))

	assert.Zero(t, l.tracked())
	assert.Equal(t, "4800.00", mustBalance(t, l, card.ValidCard))
}

func TestRetiredAccountsKeepReservationsExclusive(t *testing.T) {
	t.Parallel()

	l := New(card.NewMemoryStore(card.DemoCards(time.Now())...))
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)

	for range 64 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 30 {
				req := request(card.LowBalanceCard, "30")

				res, err := l.Validate(ctx, req)
				if err != nil {
					continue
				}

				if _, ok := res.(check.Success); !ok {
					continue
				}

				mu.Lock()
				granted++
				mu.Unlock()

				// Releasing every other grant keeps accounts retiring while
				// other workers reserve.
				if j%2 == 0 {
					l.Release(ctx, req)
				}
			}
		}()
	}

	wg.Wait()

	assert.GreaterOrEqual(t, granted, 16)
	assert.True(t, l.Pending(card.LowBalanceCard).LessThanOrEqual(decimal.NewFromInt(500)))

	available, err := l.Available(ctx, card.LowBalanceCard)
	require.NoError(t, err)
	assert.False(t, available.IsNegative())
}

func mustBalance(t *testing.T, l *Ledger, number string) string {
	t.Helper()

	balance, err := l.Balance(context.Background(), number)
	require.NoError(t, err)

	return balance.StringFixed(2)
}
