package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatMoney renders whole dollars with thousands separators.
func formatMoney(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.0f", v)
}
