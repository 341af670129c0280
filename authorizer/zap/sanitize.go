package zap

import "strings"

// controlCharReplacer escapes characters that could forge extra entries in
// console output (CWE-117). Merchant names arrive from callers unchecked.
var controlCharReplacer = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func sanitizeString(s string) string {
	return controlCharReplacer.Replace(s)
}
