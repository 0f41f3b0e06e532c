package types

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders v as dollars with thousands separators, e.g. $1,234.56.
// Amounts that round to zero cents carry no sign.
func FormatCurrency(v float64) string {
	if math.Round(v*100) < 0 {
		return "-" + currencyPrinter.Sprintf("$%.2f", -v)
	}
	return currencyPrinter.Sprintf("$%.2f", math.Abs(v))
}
