package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SuccessMessage is the message of every approved transaction.
const SuccessMessage = "Transaction processed successfully"

// Request is one authorization attempt. It is a value and never changes
// after NewRequest. ID doubles as the key of the balance reservation.
type Request struct {
	ID             uuid.UUID       `json:"id"`
	CardNumber     string          `json:"cardNumber"`
	ExpirationDate string          `json:"expirationDate"`
	PIN            string          `json:"-"`
	Amount         decimal.Decimal `json:"amount"`
	Merchant       string          `json:"merchant"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewRequest stamps a fresh id and the creation time.
func NewRequest(cardNumber, expirationDate, pin string, amount decimal.Decimal, merchant string) Request {
	return Request{
		ID:             uuid.New(),
		CardNumber:     cardNumber,
		ExpirationDate: expirationDate,
		PIN:            pin,
		Amount:         amount,
		Merchant:       merchant,
		CreatedAt:      time.Now(),
	}
}

// Validate rejects requests that no check should ever see.
func (r Request) Validate() error {
	if r.ID == uuid.Nil {
		return NewDomainError(ErrorInvalidInput, "id", "id is required")
	}

	required := []struct {
		field string
		value string
	}{
		{"cardNumber", r.CardNumber},
		{"expirationDate", r.ExpirationDate},
		{"pin", r.PIN},
		{"merchant", r.Merchant},
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return NewDomainError(ErrorInvalidInput, f.field, f.field+" is required")
		}
	}

	if !r.Amount.IsPositive() {
		return NewDomainError(ErrorInvalidInput, "amount", "amount must be greater than zero")
	}

	return nil
}

// Result is the verdict of one authorization attempt.
type Result struct {
	Success          bool             `json:"success"`
	TransactionID    string           `json:"transactionId,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Message          string           `json:"message"`
	Code             ErrorCode        `json:"code,omitempty"`
	ProcessedAt      time.Time        `json:"processedAt"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
}

// Succeeded builds an approved result.
func Succeeded(transactionID string, amount decimal.Decimal, elapsed time.Duration, processedAt time.Time) Result {
	return Result{
		Success:          true,
		TransactionID:    transactionID,
		Amount:           &amount,
		Message:          SuccessMessage,
		ProcessedAt:      processedAt,
		ProcessingTimeMs: elapsedMs(elapsed),
	}
}

// Failed builds a declined result.
func Failed(code ErrorCode, message string, elapsed time.Duration, processedAt time.Time) Result {
	return Result{
		Success:          false,
		Message:          message,
		Code:             code,
		ProcessedAt:      processedAt,
		ProcessingTimeMs: elapsedMs(elapsed),
	}
}

func elapsedMs(d time.Duration) int64 {
	if d < 0 {
		return 0
	}

	return d.Milliseconds()
}
