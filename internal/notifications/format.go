package notifications

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmountCents renders a cent amount as a human readable USD string
// with grouping separators. Used in notification bodies and emails.
func FormatAmountCents(cents int64) string {
	unit := currency.USD.Amount(float64(cents) / 100)
	return printer.Sprintf("%v", currency.Symbol(unit))
}
