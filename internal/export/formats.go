package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NumberFormats are the Excel number formats for one locale. Negative values
// render red.
type NumberFormats struct {
	Currency string
	Integer  string
	Symbol   string
}

// FormatsFor derives the currency symbol from locale (a BCP 47 tag such as
// en-US or id-ID). Unparsable tags fall back to US English.
func FormatsFor(locale string) NumberFormats {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.AmericanEnglish
	}
	unit, _ := currency.FromTag(tag)

	symbol := strings.TrimSpace(message.NewPrinter(tag).Sprint(currency.Symbol(unit)))
	if symbol == "" {
		symbol = unit.String()
	}
	quoted := `"` + strings.ReplaceAll(symbol, `"`, ``) + `"`

	return NumberFormats{
		Currency: fmt.Sprintf("%s#,##0.00;[Red]-%s#,##0.00", quoted, quoted),
		Integer:  "#,##0;[Red]-#,##0",
		Symbol:   symbol,
	}
}
