package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LerianStudio/lib-authorizer/authorizer/assert"
	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/check"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

var (
	// ErrReservationNotFound is returned by Transfer when Validate never
	// reserved the request, or the reservation was already released.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrCardMismatch is returned by Transfer for a card other than the request's.
	ErrCardMismatch        = errors.New("card does not match request")
	// ErrInvalidAmount is returned for non-positive debits and negative balances.
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)

const (
	// MsgInvalidAmount declines requests with a non-positive amount.
	MsgInvalidAmount = "Balance Check: Invalid amount"
	// MsgCardNotFound declines requests for unknown cards.
	MsgCardNotFound  = "Balance Check: Card not found"

	msgInsufficientFunds = "Balance Check: Insufficient funds (available: %s)"
	msgReserved          = "Balance Check: Validation successful (locked %s)"
)

// account is the lock and reservation set of one card. An account without
// reservations is retired from the registry on unlock; a retired account is
// never reused.
type account struct {
	mu      sync.Mutex
	pending map[uuid.UUID]decimal.Decimal
	retired bool
}

func (a *account) locked() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range a.pending {
		total = total.Add(amount)
	}

	return total
}

// Ledger reserves and settles card balances stored in a card.Store.
type Ledger struct {
	store   card.Store
	logger  log.Logger
	metrics *metrics.MetricsFactory
	asserts *assert.Asserter

	mu       sync.Mutex
	accounts map[string]*account
}

var _ check.Reserver = (*Ledger)(nil)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger log.Logger) Option {
	return func(l *Ledger) {
		l.logger = log.OrNop(logger)
	}
}

// WithMetrics publishes the pending reservation gauge through factory.
func WithMetrics(factory *metrics.MetricsFactory) Option {
	return func(l *Ledger) {
		if factory != nil {
			l.metrics = factory
		}
	}
}

// New creates a ledger over store. Reservations live in memory only.
func New(store card.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		logger:   log.NewNop(),
		metrics:  metrics.NewNopFactory(),
		accounts: make(map[string]*account),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.asserts = assert.New(l.logger, l.metrics, "ledger")

	return l
}

func (l *Ledger) account(number string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]
	if !ok {
		acct = &account{pending: make(map[uuid.UUID]decimal.Decimal)}
		l.accounts[number] = acct
	}

	return acct
}

// find returns the registered account of number without creating one.
func (l *Ledger) find(number string) (*account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]

	return acct, ok
}

// lock returns the locked live account of number, creating it if needed.
func (l *Ledger) lock(number string) *account {
	for {
		acct := l.account(number)
		acct.mu.Lock()

		if !acct.retired {
			return acct
		}

		acct.mu.Unlock()
	}
}

// unlock releases acct and retires it when it holds no reservation, so the
// registry only keeps cards with pending reservations.
func (l *Ledger) unlock(number string, acct *account) {
	if len(acct.pending) == 0 && !acct.retired {
		acct.retired = true

		l.mu.Lock()
		if l.accounts[number] == acct {
			delete(l.accounts, number)
		}
		l.mu.Unlock()
	}

	acct.mu.Unlock()
}

// Validate reserves req.Amount when the available balance covers it.
// Validating the same request twice keeps a single reservation.
func (l *Ledger) Validate(ctx context.Context, req transaction.Request) (check.Result, error) {
	if !req.Amount.IsPositive() {
		return check.Failure{Code: transaction.ErrorInvalidInput, Message: MsgInvalidAmount}, nil
	}

	acct := l.lock(req.CardNumber)
	defer l.unlock(req.CardNumber, acct)

	stored, err := l.store.Get(ctx, req.CardNumber)
	if errors.Is(err, card.ErrNotFound) {
		return check.Failure{Code: transaction.ErrorCardNotFound, Message: MsgCardNotFound}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reserve balance: %w", err)
	}

	if held, ok := acct.pending[req.ID]; ok {
		return check.Success{Message: fmt.Sprintf(msgReserved, held.StringFixed(2))}, nil
	}

	available := stored.Balance.Sub(acct.locked())
	if available.LessThan(req.Amount) {
		return check.Failure{
			Code:    transaction.ErrorInsufficientFunds,
			Message: fmt.Sprintf(msgInsufficientFunds, available.StringFixed(2)),
		}, nil
	}

	acct.pending[req.ID] = req.Amount

	locked := acct.locked()
	if err := l.asserts.That(ctx, locked.LessThanOrEqual(stored.Balance), "reserve",
		"pending reservations exceed balance",
		"pending", locked.StringFixed(2), "balance", stored.Balance.StringFixed(2)); err != nil {
		delete(acct.pending, req.ID)
		return nil, fmt.Errorf("reserve balance: %w", err)
	}

	l.publish(ctx, req.CardNumber, len(acct.pending))

	return check.Success{Message: fmt.Sprintf(msgReserved, req.Amount.StringFixed(2))}, nil
}

// Release drops the reservation of req and reports whether there was one.
func (l *Ledger) Release(ctx context.Context, req transaction.Request) bool {
	acct, ok := l.find(req.CardNumber)
	if !ok {
		return false
	}

	acct.mu.Lock()
	defer l.unlock(req.CardNumber, acct)

	if _, ok := acct.pending[req.ID]; !ok {
		return false
	}

	delete(acct.pending, req.ID)
	l.publish(ctx, req.CardNumber, len(acct.pending))

	l.logger.Log(ctx, log.LevelDebug, "reservation released",
		log.CardNumber(req.CardNumber), log.Stringer("reservation", req.ID))

	return true
}

// Transfer consumes the reservation of req and debits the stored balance.
// The balance is re-read under the lock so concurrent transfers on the same
// card never overwrite each other.
func (l *Ledger) Transfer(ctx context.Context, req transaction.Request, c card.Card) error {
	if !req.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if c.Number != req.CardNumber {
		return ErrCardMismatch
	}

	acct, ok := l.find(req.CardNumber)
	if !ok {
		return ErrReservationNotFound
	}

	acct.mu.Lock()
	defer l.unlock(req.CardNumber, acct)

	amount, ok := acct.pending[req.ID]
	if !ok {
		return ErrReservationNotFound
	}

	current, err := l.store.Get(ctx, c.Number)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	if _, err := l.store.Put(ctx, current.WithBalance(current.Balance.Sub(amount))); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	delete(acct.pending, req.ID)
	l.publish(ctx, req.CardNumber, len(acct.pending))

	// Merchant accounts are not modelled; the credit side is only logged.
	l.logger.Log(ctx, log.LevelDebug, "merchant credit skipped",
		log.String("merchant", req.Merchant), log.String("amount", amount.StringFixed(2)))

	return nil
}

// Balance returns the stored balance, ignoring reservations.
func (l *Ledger) Balance(ctx context.Context, cardNumber string) (decimal.Decimal, error) {
	c, err := l.store.Get(ctx, cardNumber)
	if err != nil {
		return decimal.Zero, err
	}

	return c.Balance, nil
}

// Available returns the stored balance minus pending reservations.
func (l *Ledger) Available(ctx context.Context, cardNumber string) (decimal.Decimal, error) {
	acct, ok := l.find(cardNumber)
	if !ok {
		return l.Balance(ctx, cardNumber)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	c, err := l.store.Get(ctx, cardNumber)
	if err != nil {
		return decimal.Zero, err
	}

	return c.Balance.Sub(acct.locked()), nil
}

// Pending returns the sum of the card's reservations.
func (l *Ledger) Pending(cardNumber string) decimal.Decimal {
	acct, ok := l.find(cardNumber)
	if !ok {
		return decimal.Zero
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	return acct.locked()
}

// SetBalance overwrites the stored balance of an existing card.
func (l *Ledger) SetBalance(ctx context.Context, cardNumber string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	acct := l.lock(cardNumber)
	defer l.unlock(cardNumber, acct)

	c, err := l.store.Get(ctx, cardNumber)
	if err != nil {
		return err
	}

	if _, err := l.store.Put(ctx, c.WithBalance(amount)); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	return nil
}

// Balances returns the stored balance of every card.
func (l *Ledger) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	cards, err := l.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(cards))
	for _, c := range cards {
		out[c.Number] = c.Balance
	}

	return out, nil
}

func (l *Ledger) publish(ctx context.Context, number string, pending int) {
	if err := l.metrics.SetPendingReservations(ctx, log.MaskCardNumber(number), pending); err != nil {
		l.logger.Log(ctx, log.LevelWarn, "failed to record pending reservations", log.Err(err))
	}
}
