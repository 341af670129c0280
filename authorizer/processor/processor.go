package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LerianStudio/lib-authorizer/authorizer/assert"
	"github.com/LerianStudio/lib-authorizer/authorizer/card"
	"github.com/LerianStudio/lib-authorizer/authorizer/check"
	"github.com/LerianStudio/lib-authorizer/authorizer/log"
	"github.com/LerianStudio/lib-authorizer/authorizer/opentelemetry/metrics"
	"github.com/LerianStudio/lib-authorizer/authorizer/runtime"
	"github.com/LerianStudio/lib-authorizer/authorizer/taskgroup"
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

var (
	// ErrAborted is returned when the caller's context ends before a verdict.
	ErrAborted = errors.New("transaction aborted")
	// ErrSettlement is returned when every check passed but the transfer failed.
	ErrSettlement = errors.New("transaction settlement failed")
	// ErrMissingCheck is returned by New when Checks is incomplete.
	ErrMissingCheck = errors.New("processor: missing check")
)

const (
	// MsgInternalFailure is the declined message of infrastructure faults.
	MsgInternalFailure = "Validation Error: internal failure"
	// MsgAborted is the message of a transaction cancelled by its caller.
	MsgAborted         = "Transaction aborted"

	consumerTask = "consumer"
)

// CardResolver finds the card a request refers to.
type CardResolver interface {
	Validate(ctx context.Context, req transaction.Request) (check.CardResult, error)
}

// Settler finalizes balance reservations. ledger.Ledger implements it.
type Settler interface {
	Release(ctx context.Context, req transaction.Request) bool
	Transfer(ctx context.Context, req transaction.Request, c card.Card) error
}

// Checks is the set of validations run for every transaction.
type Checks struct {
	Card       CardResolver
	Merchant   check.Check
	Expiration check.CardCheck
	PIN        check.CardCheck
	Balance    check.CardCheck
}

func (c Checks) validate() error {
	missing := map[string]bool{
		check.NameCard:       c.Card == nil,
		check.NameMerchant:   c.Merchant == nil,
		check.NameExpiration: c.Expiration == nil,
		check.NamePIN:        c.PIN == nil,
		check.NameBalance:    c.Balance == nil,
	}

	for name, absent := range missing {
		if absent {
			return fmt.Errorf("%w: %s", ErrMissingCheck, name)
		}
	}

	return nil
}

// Processor authorizes transactions by running the checks concurrently and
// settling through a Settler. It is safe for concurrent use.
type Processor struct {
	checks     Checks
	settler    Settler
	logger     log.Logger
	metrics    *metrics.MetricsFactory
	panics     *runtime.PanicHandler
	asserts    *assert.Asserter
	observer   StateObserver
	now        func() time.Time
	production bool
}

// New validates checks and settler and applies opts.
func New(checks Checks, settler Settler, opts ...Option) (*Processor, error) {
	if err := checks.validate(); err != nil {
		return nil, err
	}

	if settler == nil {
		return nil, errors.New("processor: settler is required")
	}

	p := &Processor{
		checks:  checks,
		settler: settler,
		logger:  log.NewNop(),
		metrics: metrics.NewNopFactory(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.panics == nil {
		p.panics = runtime.NewPanicHandler(p.logger, p.metrics, p.production)
	}

	p.asserts = assert.New(p.logger, p.metrics, "processor")

	return p, nil
}

// ProcessTransaction authorizes req. Declines are reported in the Result
// with a nil error; the error is set only with ErrAborted or ErrSettlement,
// and a failed Result is returned alongside it.
func (p *Processor) ProcessTransaction(ctx context.Context, req transaction.Request) (transaction.Result, error) {
	start := p.now()
	logger := p.logger.With(log.Stringer("transaction", req.ID), log.CardNumber(req.CardNumber))

	if err := req.Validate(); err != nil {
		return p.reject(ctx, logger, req, start, err), nil
	}

	logger.Log(ctx, log.LevelInfo, "authorizing transaction",
		log.String("merchant", req.Merchant), log.String("amount", req.Amount.StringFixed(2)))

	p.transition(ctx, logger, req, StateInit)

	cancelling := sync.OnceFunc(func() { p.transition(ctx, logger, req, StateCancelling) })

	var captured card.Card

	grp, _ := taskgroup.WithContext(ctx, taskgroup.WithName("authorization"), taskgroup.WithPanicHandler(p.panics))

	p.transition(ctx, logger, req, StateMerchantRunning)
	p.transition(ctx, logger, req, StateConsumerRunning)

	grp.Go(check.NameMerchant, failFast(cancelling, func(ctx context.Context) error {
		res, err := p.checks.Merchant.Validate(ctx, req)
		return check.Err(check.NameMerchant, res, err)
	}))

	grp.Go(consumerTask, failFast(cancelling, func(ctx context.Context) error {
		c, err := p.consume(ctx, req, cancelling)
		captured = c

		return err
	}))

	if err := grp.Wait(); err != nil {
		cancelling()

		return p.decline(ctx, logger, req, start, err)
	}

	return p.commit(ctx, logger, req, start, captured)
}

// consume looks the card up and, when it is usable, validates it in a
// nested group. The nested group's failure is this task's failure, so it
// cancels the merchant check too.
func (p *Processor) consume(ctx context.Context, req transaction.Request, cancelling func()) (card.Card, error) {
	res, err := p.checks.Card.Validate(ctx, req)
	if err != nil {
		return card.Card{}, err
	}

	var resolved card.Card

	switch v := res.(type) {
	case check.CardSuccess:
		resolved = v.Card
	case check.CardFailure:
		return card.Card{}, &check.FailureError{
			Check:   check.NameCard,
			Failure: check.Failure{Code: v.Code, Message: v.Message},
		}
	default:
		return card.Card{}, p.asserts.Never(ctx, check.NameCard, "unexpected card lookup result",
			"type", fmt.Sprintf("%T", res))
	}

	nested, _ := taskgroup.WithContext(ctx, taskgroup.WithName(consumerTask), taskgroup.WithPanicHandler(p.panics))

	for _, cc := range []struct {
		name  string
		check check.CardCheck
	}{
		{check.NameExpiration, p.checks.Expiration},
		{check.NamePIN, p.checks.PIN},
		{check.NameBalance, p.checks.Balance},
	} {
		nested.Go(cc.name, failFast(cancelling, func(ctx context.Context) error {
			res, err := cc.check.Validate(ctx, req, resolved)
			return check.Err(cc.name, res, err)
		}))
	}

	return resolved, nested.Wait()
}

// failFast reports the cancelling state as soon as fn fails on its own.
func failFast(cancelling func(), fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && ctx.Err() == nil {
			cancelling()
		}

		return err
	}
}

func (p *Processor) commit(ctx context.Context, logger log.Logger, req transaction.Request, start time.Time, c card.Card) (transaction.Result, error) {
	p.transition(ctx, logger, req, StateCommitting)

	if err := p.settler.Transfer(ctx, req, c); err != nil {
		p.settler.Release(context.WithoutCancel(ctx), req)
		log.SafeError(logger, ctx, "transaction settlement failed", err, p.production)

		result := transaction.Failed(transaction.ErrorInternal, MsgInternalFailure, p.now().Sub(start), p.now())
		p.transition(ctx, logger, req, StateFailed)
		p.record(ctx, logger, metrics.OutcomeDeclined, result)

		return result, fmt.Errorf("%w: %w", ErrSettlement, err)
	}

	result := transaction.Succeeded(uuid.NewString(), req.Amount, p.now().Sub(start), p.now())

	p.transition(ctx, logger, req, StateSucceeded)
	p.record(ctx, logger, metrics.OutcomeApproved, result)

	logger.Log(ctx, log.LevelInfo, "transaction approved",
		log.String("transaction_id", result.TransactionID), log.Int64("elapsed_ms", result.ProcessingTimeMs))

	return result, nil
}

func (p *Processor) decline(ctx context.Context, logger log.Logger, req transaction.Request, start time.Time, cause error) (transaction.Result, error) {
	released := p.settler.Release(context.WithoutCancel(ctx), req)

	var (
		result  transaction.Result
		outcome = metrics.OutcomeDeclined
		retErr  error
		failure *check.FailureError
	)

	switch {
	case errors.As(cause, &failure):
		result = transaction.Failed(failure.Failure.Code, failure.Failure.Message, p.now().Sub(start), p.now())
		p.recordCheckFailure(ctx, logger, failure.Check, failure.Failure.Code)
	case ctx.Err() != nil && isContextError(cause):
		result = transaction.Failed(transaction.ErrorInternal, MsgAborted, p.now().Sub(start), p.now())
		outcome = metrics.OutcomeAborted
		retErr = fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	default:
		log.SafeError(logger, ctx, "validation infrastructure failure", cause, p.production)

		result = transaction.Failed(transaction.ErrorInternal, MsgInternalFailure, p.now().Sub(start), p.now())
	}

	p.transition(ctx, logger, req, StateFailed)
	p.record(ctx, logger, outcome, result)

	logger.Log(ctx, log.LevelInfo, "transaction declined",
		log.String("code", string(result.Code)),
		log.String("reason", result.Message),
		log.Bool("reservation_released", released),
		log.Int64("elapsed_ms", result.ProcessingTimeMs))

	return result, retErr
}

// reject answers requests that fail basic validation; no check runs and
// nothing is reserved.
func (p *Processor) reject(ctx context.Context, logger log.Logger, req transaction.Request, start time.Time, err error) transaction.Result {
	message := err.Error()

	var domainErr transaction.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	result := transaction.Failed(transaction.ErrorInvalidInput, message, p.now().Sub(start), p.now())

	p.transition(ctx, logger, req, StateInit)
	p.transition(ctx, logger, req, StateFailed)
	p.record(ctx, logger, metrics.OutcomeDeclined, result)

	logger.Log(ctx, log.LevelInfo, "transaction rejected", log.String("reason", message))

	return result
}

func (p *Processor) transition(ctx context.Context, logger log.Logger, req transaction.Request, state State) {
	logger.Log(ctx, log.LevelDebug, "authorization state", log.Stringer("state", state))

	if p.observer != nil {
		p.notify(ctx, req, state)
	}
}

// notify runs the observer. A panicking observer is logged and counted but
// never changes the verdict.
func (p *Processor) notify(ctx context.Context, req transaction.Request, state State) {
	defer p.panics.RecoverAndLog(ctx, "processor", "state_observer")

	p.observer(req, state)
}

func (p *Processor) record(ctx context.Context, logger log.Logger, outcome string, result transaction.Result) {
	if err := p.metrics.RecordAuthorization(ctx, outcome, string(result.Code), result.ProcessingTimeMs); err != nil {
		logger.Log(ctx, log.LevelWarn, "failed to record authorization metric", log.Err(err))
	}
}

func (p *Processor) recordCheckFailure(ctx context.Context, logger log.Logger, name string, code transaction.ErrorCode) {
	if err := p.metrics.RecordCheckFailure(ctx, name, string(code)); err != nil {
		logger.Log(ctx, log.LevelWarn, "failed to record check failure metric", log.Err(err))
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
