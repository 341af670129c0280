package constant

import "time"

// Simulated external-call latencies of each check.
const (
	CardCheckDelay       = 100 * time.Millisecond
	ExpirationCheckDelay = 200 * time.Millisecond
	PINCheckDelay        = 300 * time.Millisecond
	MerchantCheckDelay   = 500 * time.Millisecond
	BalanceCheckDelay    = 600 * time.Millisecond
)

// Default rule patterns.
const (
	DefaultBlockedCardPattern     = "0000"
	DefaultBlockedMerchantPattern = "(?i)blocked"
)
