package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attachment is a receipt file owned by exactly one expense line. It is
// released together with the line; nothing else holds a reference to it.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// ConversionDisplay is the rendered conversion panel of a line. CalcLine is
// load-bearing: the submission path re-parses its trailing amount token, so
// its format must stay in sync with the submission parser.
type ConversionDisplay struct {
	RateLine string `json:"rate_line"`
	CalcLine string `json:"calc_line"`
}

// Empty reports whether the panel is hidden.
func (d ConversionDisplay) Empty() bool {
	return d.RateLine == "" && d.CalcLine == ""
}

// ExpenseLine is one row of an expense report draft.
type ExpenseLine struct {
	ID          string
	Date        time.Time // zero value means "unset"; computation substitutes today
	Description string
	Amount      decimal.Decimal
	Currency    Currency
	Attachment  *Attachment
	Display     ConversionDisplay

	// Revision increases on every edit that can affect the conversion. A rate
	// lookup captures the revision it was issued for and its result is
	// discarded if the line has moved on by the time it resolves.
	Revision uint64
}

// Touch marks the line as edited and returns the new revision.
func (l *ExpenseLine) Touch() uint64 {
	l.Revision++
	return l.Revision
}

// EffectiveDate resolves the line's transaction date, substituting the
// current day when no date has been entered yet.
func (l *ExpenseLine) EffectiveDate(now time.Time) time.Time {
	if l.Date.IsZero() {
		return now
	}
	return l.Date
}

// SanitizeAmount coerces arbitrary numeric input to a valid line amount:
// non-numeric input and NaN become zero, negative values lose their sign,
// and the result is rounded to two fractional digits.
func SanitizeAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs().Round(2)
}
