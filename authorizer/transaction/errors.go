package transaction

import "fmt"

// ErrorCode is a business error code carried by failed results.
type ErrorCode string

const (
	// ErrorInsufficientFunds indicates the available balance cannot cover the amount.
	ErrorInsufficientFunds ErrorCode = "0018"
	// ErrorCardIneligible indicates the card cannot take part in the transaction.
	ErrorCardIneligible ErrorCode = "0019"
	// ErrorCardExpired indicates the card expired before the current month.
	ErrorCardExpired ErrorCode = "0020"
	// ErrorInvalidPIN indicates the PIN does not match the card.
	ErrorInvalidPIN ErrorCode = "0021"
	// ErrorMerchantBlocked indicates the merchant matched a blocking rule.
	ErrorMerchantBlocked ErrorCode = "0022"
	// ErrorCardNotFound indicates the card is not in the store.
	ErrorCardNotFound ErrorCode = "0034"
	// ErrorInternal indicates stored data is inconsistent or a check broke.
	ErrorInternal ErrorCode = "0099"
	// ErrorInvalidInput indicates request validation failed.
	ErrorInvalidInput ErrorCode = "1001"
)

// DomainError is a coded validation error on a request field.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
}

// Error returns the code, the field when set, and the message.
func (e DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// NewDomainError returns a DomainError as an error.
func NewDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}
