package card

import (
	"time"

	"github.com/shopspring/decimal"
)

// Demo card numbers.
const (
	ValidCard      = "4532-1234-5678-9012"
	LowBalanceCard = "9876-5432-1098-7654"
	ExpiredCard    = "5555-4444-3333-2222"
	ScopedCard     = "4111-1111-1111-1111"
	LockingCard    = "1234-5678-9012-3456"
)

// ExpiredDate is the fixed expiration of ExpiredCard.
const ExpiredDate = "1223"

const demoValidityYears = 3

// ExpirationFrom formats t as MMYY.
func ExpirationFrom(t time.Time) string {
	return t.Format("0106")
}

// DemoCards returns the demo card set. Cards that should be valid expire
// three years after now so the fixtures never age out.
func DemoCards(now time.Time) []Card {
	valid := ExpirationFrom(now.AddDate(demoValidityYears, 0, 0))

	return []Card{
		{Number: ValidCard, ExpirationDate: valid, PIN: "1234", Balance: decimal.RequireFromString("5000.00"), Description: "Valid card with good balance"},
		{Number: LowBalanceCard, ExpirationDate: valid, PIN: "5678", Balance: decimal.RequireFromString("500.00"), Description: "Low balance card"},
		{Number: ExpiredCard, ExpirationDate: ExpiredDate, PIN: "9876", Balance: decimal.RequireFromString("1000.00"), Description: "Expired card"},
		{Number: ScopedCard, ExpirationDate: valid, PIN: "5555", Balance: decimal.RequireFromString("2000.00"), Description: "Card for scoped values demo"},
		{Number: LockingCard, ExpirationDate: valid, PIN: "1234", Balance: decimal.RequireFromString("5000.00"), Description: "Card for balance locking demo"},
	}
}
