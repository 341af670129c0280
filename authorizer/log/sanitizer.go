package log

import (
	"context"
	"fmt"
	"strings"
)

const visibleCardDigits = 4

// SafeError logs err at error level. In production only the error type is
// written, since check and store errors may embed card data.
func SafeError(logger Logger, ctx context.Context, msg string, err error, production bool) {
	if logger == nil || err == nil {
		return
	}

	if !logger.Enabled(LevelError) {
		return
	}

	if production {
		logger.Log(ctx, LevelError, msg, String("error_type", fmt.Sprintf("%T", err)))
		return
	}

	logger.Log(ctx, LevelError, msg, Err(err))
}

// MaskCardNumber keeps only the last four digits of a card number.
// Separators are dropped so "4532-1234-5678-9012" becomes "****9012".
func MaskCardNumber(number string) string {
	var digits strings.Builder

	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) <= visibleCardDigits {
		return strings.Repeat("*", len(d))
	}

	return "****" + d[len(d)-visibleCardDigits:]
}

// CardNumber is the field used for card numbers in every log event.
func CardNumber(number string) Field {
	return String("card", MaskCardNumber(number))
}
