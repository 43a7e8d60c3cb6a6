package currency

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fintrack/internal/core"
)

// Formatting is pinned rather than host-dependent: amounts are rounded
// half-up to two fraction digits, grouped per the en locale, and prefixed
// with the currency symbol (or "CODE " when no common symbol exists).
var printer = message.NewPrinter(language.English)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"RUB": "₽",
	"UAH": "₴",
	"TRY": "₺",
}

// Format renders an amount in the given currency. Codes that do not parse
// as ISO 4217 are rendered verbatim as a prefix.
func Format(amount float64, code string) string {
	m := core.FromFloat(amount)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + formatPlain(m)
	}
	iso := unit.String()
	if sym, ok := symbols[iso]; ok {
		if m.Cents < 0 {
			return "-" + sym + formatPlain(core.Money{Cents: -m.Cents})
		}
		return sym + formatPlain(m)
	}
	return iso + " " + formatPlain(m)
}

// FormatMoney renders integer cents, which need no further rounding.
func FormatMoney(m core.Money, code string) string {
	return Format(m.Float64(), code)
}

// formatPlain renders cents as a grouped decimal without a symbol.
func formatPlain(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	rem := cents % 100
	s := printer.Sprintf("%d", whole) + fmt.Sprintf(".%02d", rem)
	if neg {
		return "-" + s
	}
	return s
}
