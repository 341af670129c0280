package authorizer

import (
	"github.com/LerianStudio/lib-authorizer/authorizer/transaction"
)

// Response represents a business error with code, title, and message.
type Response struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

// Error returns the response message.
func (e Response) Error() string {
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e Response) Unwrap() error {
	return e.Err
}

// ValidateBusinessError returns the titled Response for a business error code.
// Unknown codes map to a generic response carrying the code.
func ValidateBusinessError(code transaction.ErrorCode, entityType string) Response {
	errorMap := map[transaction.ErrorCode]Response{
		transaction.ErrorInsufficientFunds: {
			Title:   "Insufficient Funds Response",
			Message: "The transaction could not be completed due to insufficient funds on the card. Please add funds or use a smaller amount and try again.",
		},
		transaction.ErrorCardIneligible: {
			Title:   "Card Ineligibility Response",
			Message: "The card is not eligible for this transaction. Please review the card details and try again.",
		},
		transaction.ErrorCardExpired: {
			Title:   "Card Expired Response",
			Message: "The card has expired. Please use a valid card and try again.",
		},
		transaction.ErrorInvalidPIN: {
			Title:   "Invalid PIN Response",
			Message: "The PIN provided does not match the card. Please check the PIN and try again.",
		},
		transaction.ErrorMerchantBlocked: {
			Title:   "Merchant Blocked Response",
			Message: "The merchant is not allowed to accept transactions. Please contact the merchant.",
		},
		transaction.ErrorCardNotFound: {
			Title:   "Card Not Found",
			Message: "The provided card does not exist in our records. Please verify the card number and try again.",
		},
		transaction.ErrorInternal: {
			Title:   "Internal Validation Error",
			Message: "The transaction could not be validated due to an internal error. Please try again later.",
		},
		transaction.ErrorInvalidInput: {
			Title:   "Invalid Request",
			Message: "The request is missing required fields or carries invalid values. Please check the request and try again.",
		},
	}

	response, found := errorMap[code]
	if !found {
		response = Response{Title: "Transaction Declined", Message: "The transaction was declined."}
	}

	response.EntityType = entityType
	response.Code = string(code)

	return response
}

// ResultError converts a declined result into its business Response.
// It returns nil for approved results.
func ResultError(result transaction.Result, entityType string) error {
	if result.Success {
		return nil
	}

	response := ValidateBusinessError(result.Code, entityType)
	response.Err = transaction.NewDomainError(result.Code, "", result.Message)

	return response
}
