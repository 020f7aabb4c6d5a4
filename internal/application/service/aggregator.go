package service

import (
	"context"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// lineContribution is the per-line snapshot the total sweep works from.
type lineContribution struct {
	amount   decimal.Decimal
	currency entity.Currency
	date     time.Time
}

// recomputeTotal re-derives the aggregate reporting-currency total from the
// full current line collection. Reporting-currency lines contribute their
// amount directly; foreign lines are converted with a rate fetched fresh for
// this sweep, independent of whatever rate their display shows. Empty
// amounts contribute nothing. The sweep captures its revision up front and a
// sweep that has been superseded by a later change discards its result.
func (s *DraftService) recomputeTotal(ctx context.Context, draftID string, totalRev uint64) {
	s.mu.RLock()
	d, ok := s.drafts[draftID]
	if !ok || d.totalRev != totalRev {
		s.mu.RUnlock()
		return
	}
	contributions := make([]lineContribution, 0, len(d.lines))
	now := s.now()
	for _, line := range d.lines {
		contributions = append(contributions, lineContribution{
			amount:   line.Amount,
			currency: line.Currency,
			date:     line.EffectiveDate(now),
		})
	}
	s.mu.RUnlock()

	total := decimal.Zero
	for _, c := range contributions {
		if c.amount.IsZero() {
			continue
		}
		if c.currency.IsReporting() {
			total = total.Add(c.amount)
			continue
		}
		rate := s.rates.GetRate(ctx, c.currency, entity.ReportingCurrency, c.date)
		total = total.Add(convertAmount(c.amount, rate))
	}

	display := entity.ReportingCurrency.Symbol() + total.StringFixed(2)

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok = s.drafts[draftID]
	if !ok || d.totalRev != totalRev {
		return
	}
	d.totalDisplay = display

	s.logger.Debug("Total recomputed", map[string]interface{}{
		"draft_id": draftID,
		"total":    display,
	})
}
