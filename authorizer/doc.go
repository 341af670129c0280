// Package authorizer wires the transaction authorizer together.
//
// NewService turns a config.Config into a ready Service: it builds the zap
// logger and metrics factory, opens the card store (memory or Redis),
// optionally seeds the demo cards, and assembles the checks, the balance
// ledger and the processor.
//
//	cfg, err := config.Load()
//	svc, err := authorizer.NewService(ctx, cfg)
//	defer svc.Close(ctx)
//	result, err := svc.Authorize(ctx, transaction.NewRequest(number, "1229", pin, amount, merchant))
//
// Subpackages can also be used on their own: taskgroup for fail-fast
// concurrency, ledger for balance reservations, check for the individual
// validations.
package authorizer
