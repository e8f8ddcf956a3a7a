// Package format renders monetary values for display. It is best-effort
// by design: input that cannot be parsed is passed through unchanged and
// no function here ever returns an error.
package format

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyOptions bounds the fraction digits and selects the locale used
// for digit grouping. The zero value formats whole numbers in English.
type MoneyOptions struct {
	MinFractionDigits int
	MaxFractionDigits int
	Locale            string
}

// Money formats a numeric string as a locale-aware decimal. Thousands
// separators and whitespace in the input are stripped before parsing;
// input that still fails to parse is returned verbatim.
func Money(value string, opts MoneyOptions) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, value)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return value
	}
	return MoneyFloat(v, opts)
}

// MoneyFloat formats a numeric value as a locale-aware decimal honoring
// the fraction-digit bounds. An unknown locale falls back to English
// rather than failing.
func MoneyFloat(v float64, opts MoneyOptions) string {
	tag := language.English
	if opts.Locale != "" {
		if parsed, err := language.Parse(opts.Locale); err == nil {
			tag = parsed
		}
	}
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(v,
		number.MinFractionDigits(opts.MinFractionDigits),
		number.MaxFractionDigits(opts.MaxFractionDigits),
	))
}
