// Package money formats monetary figures the way the web client renders them.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a record carries no currency code.
const DefaultCurrency = "INR"

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Format renders amount with its currency symbol, grouped digits and no fraction
// digits (half away from zero), e.g. Format(15000000, "INR") == "₹15,000,000".
// Unknown symbols fall back to the ISO code: "CHF 1,200".
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}

	n := decimal.NewFromFloat(amount).Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := message.NewPrinter(language.AmericanEnglish).Sprintf("%d", n)

	if sym, ok := symbols[code]; ok {
		return sign + sym + digits
	}
	if unit, err := currency.ParseISO(code); err == nil {
		return sign + unit.String() + " " + digits
	}
	return sign + code + " " + digits
}

// Percent renders v with a fixed number of decimal places and a trailing percent sign.
func Percent(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places) + "%"
}

// Valid reports whether code is a known ISO 4217 currency.
func Valid(code string) bool {
	_, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	return err == nil
}
