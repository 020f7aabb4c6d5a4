package entity

import "fmt"

// Currency is an ISO 4217 code drawn from the closed set the expense form offers.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	NOK Currency = "NOK"
	CHF Currency = "CHF"
	DKK Currency = "DKK"
	SEK Currency = "SEK"
	HUF Currency = "HUF"
	AED Currency = "AED"
)

// ReportingCurrency is the currency every report total is expressed in.
const ReportingCurrency = EUR

var currencySymbols = map[Currency]string{
	EUR: "€",
	USD: "$",
	GBP: "£",
	NOK: "kr",
	CHF: "Fr.",
	DKK: "kr",
	SEK: "kr",
	HUF: "Ft",
	AED: "د.إ",
}

// Currencies returns the supported set in display order, reporting currency first.
func Currencies() []Currency {
	return []Currency{EUR, USD, GBP, NOK, CHF, DKK, SEK, HUF, AED}
}

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if _, ok := currencySymbols[c]; !ok {
		return "", fmt.Errorf("unsupported currency: %q", code)
	}
	return c, nil
}

// Symbol returns the display symbol for the currency, or the code itself
// if the currency is not in the supported set.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// IsReporting reports whether the currency is the reporting currency.
func (c Currency) IsReporting() bool {
	return c == ReportingCurrency
}
