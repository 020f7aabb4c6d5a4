package service

import (
	"context"
	"fmt"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// renderRateLine renders the historic-rate statement, four decimal places.
func renderRateLine(currency entity.Currency, rate float64) string {
	return fmt.Sprintf("Historic rate: 1 %s = %.4f %s", currency, rate, entity.ReportingCurrency)
}

// renderCalcLine renders the calculation statement. The trailing amount token
// before the currency label is re-parsed at submission time; its two-decimal
// formatting is a contract with parseConvertedAmount, not cosmetics.
func renderCalcLine(amount decimal.Decimal, rate float64, converted decimal.Decimal) string {
	return fmt.Sprintf("%s × %.4f = %s %s", amount.StringFixed(2), rate, converted.StringFixed(2), entity.ReportingCurrency)
}

// convertAmount computes the reporting-currency value, rounded to cents.
func convertAmount(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Round(2)
}

// updateLineDisplay refreshes one line's conversion panel for the edit
// identified by rev. Reporting-currency and empty-amount lines have had the
// panel cleared already and need no lookup. The rate lookup runs outside the
// lock; before writing back, the line must still exist and must not have
// been edited again. A stale result is dropped, so the displayed conversion
// always reflects the most recently issued edit. Calling this twice for an
// unchanged line renders identical text both times.
func (s *DraftService) updateLineDisplay(ctx context.Context, draftID, lineID string, rev uint64) {
	s.mu.RLock()
	d, ok := s.drafts[draftID]
	if !ok {
		s.mu.RUnlock()
		return
	}
	line := d.findLine(lineID)
	if line == nil || line.Revision != rev {
		s.mu.RUnlock()
		return
	}
	amount := line.Amount
	currency := line.Currency
	date := line.EffectiveDate(s.now())
	s.mu.RUnlock()

	if amount.IsZero() || currency.IsReporting() {
		return
	}

	rate := s.rates.GetRate(ctx, currency, entity.ReportingCurrency, date)
	converted := convertAmount(amount, rate)

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok = s.drafts[draftID]
	if !ok {
		return
	}
	line = d.findLine(lineID)
	if line == nil || line.Revision != rev {
		// Superseded by a later edit or a delete while the lookup was in
		// flight; the result must not land on current state.
		return
	}

	line.Display = entity.ConversionDisplay{
		RateLine: renderRateLine(currency, rate),
		CalcLine: renderCalcLine(amount, rate, converted),
	}

	s.logger.Debug("Line conversion updated", map[string]interface{}{
		"draft_id":  draftID,
		"line_id":   lineID,
		"currency":  currency,
		"rate":      rate,
		"converted": converted.StringFixed(2),
	})
}
