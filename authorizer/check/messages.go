package check

// Check names, used in logs, metrics and FailureError.Check.
const (
	NameCard       = "card"
	NameExpiration = "expiration"
	NamePIN        = "pin"
	NameMerchant   = "merchant"
	NameBalance    = "balance"
)

// Result messages. Failed checks surface them in the transaction result.
const (
	MsgCardInvalid  = "Card Validation: Invalid card"
	MsgCardNotFound = "Card Validation: Card not found"

	MsgExpirationFormat     = "Expiration Check: Invalid date format"
	MsgExpirationCardFormat = "Expiration Check: Invalid date format in card data"
	MsgExpirationMismatch   = "Expiration Check: Invalid expiration date"
	MsgExpirationExpired    = "Expiration Check: Card expired"
	MsgExpirationOK         = "Expiration Check: Validation successful"

	MsgPINInvalid = "PIN Validation: Invalid PIN"
	MsgPINOK      = "PIN Validation: Validation successful"

	MsgMerchantBlocked = "Merchant Validation: Merchant is blocked"
	MsgMerchantOK      = "Merchant Validation: Validation successful"
)
