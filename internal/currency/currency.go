// Package currency formats canonical amounts for display. Stored amounts
// never change with the display currency.
package currency

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	Default = "USD"

	// PreferenceKey is where the chosen code is persisted.
	PreferenceKey = "finance_ai_currency"
)

type Currency struct {
	Code   string
	Symbol string
	Locale language.Tag
	Name   string
}

var table = map[string]Currency{
	"USD": {Code: "USD", Symbol: "$", Locale: language.MustParse("en-US"), Name: "US Dollar"},
	"INR": {Code: "INR", Symbol: "₹", Locale: language.MustParse("en-IN"), Name: "Indian Rupee"},
	"EUR": {Code: "EUR", Symbol: "€", Locale: language.MustParse("de-DE"), Name: "Euro"},
	"GBP": {Code: "GBP", Symbol: "£", Locale: language.MustParse("en-GB"), Name: "British Pound"},
	"JPY": {Code: "JPY", Symbol: "¥", Locale: language.MustParse("ja-JP"), Name: "Japanese Yen"},
}

// Lookup returns the currency for code, falling back to USD.
func Lookup(code string) Currency {
	if c, ok := table[strings.ToUpper(code)]; ok {
		return c
	}
	return table[Default]
}

// Supported reports whether code is in the table.
func Supported(code string) bool {
	_, ok := table[strings.ToUpper(code)]
	return ok
}

// Codes lists the supported codes in alphabetical order.
func Codes() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Format renders amount as symbol followed by the locale-grouped value
// with exactly two decimals, e.g. "€1.234,50".
func Format(code string, amount float64) string {
	c := Lookup(code)
	rounded := decimal.NewFromFloat(amount).Round(2).InexactFloat64()
	p := message.NewPrinter(c.Locale)
	return c.Symbol + p.Sprintf("%.2f", rounded)
}
