package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatPrice renders amount with the currency symbol and the grouping and
// decimal separators of tag. Unknown currency codes are printed verbatim
// ahead of the amount. A zero amount yields an empty string so unpriced
// items show no price.
func FormatPrice(amount decimal.Decimal, code string, tag language.Tag) string {
	if amount.IsZero() {
		return ""
	}

	unit, err := currency.ParseISO(code)
	scale := 2
	symbol := strings.ToUpper(strings.TrimSpace(code))
	p := message.NewPrinter(tag)
	if err == nil {
		scale, _ = currency.Standard.Rounding(unit)
		symbol = strings.TrimSpace(p.Sprint(currency.NarrowSymbol(unit)))
	}

	rounded := amount.Round(int32(scale))
	value := p.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(scale)))
	if symbol == "" {
		return value
	}
	if err != nil {
		return symbol + " " + value
	}
	return symbol + value
}
