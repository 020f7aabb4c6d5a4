package service

import (
	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
)

// LineView is the read-only projection of one expense line, carrying the
// rendered display strings exactly as the submission path will see them.
type LineView struct {
	ID          string
	Date        string // YYYY-MM-DD, empty when unset
	Description string
	Amount      string // empty when no amount has been entered
	Currency    entity.Currency
	RateLine    string
	CalcLine    string
	ReceiptName string
}

// DraftView is the read-only projection of a whole draft.
type DraftView struct {
	ID       string
	Category string
	Comment  string
	Travel   entity.TravelDetails
	Lines    []LineView
	Total    string
}

// Snapshot returns the draft's current state.
func (s *DraftService) Snapshot(draftID string) (*DraftView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}

	view := &DraftView{
		ID:       d.id,
		Category: d.category,
		Comment:  d.comment,
		Travel:   d.travel,
		Lines:    make([]LineView, 0, len(d.lines)),
		Total:    d.totalDisplay,
	}

	for _, line := range d.lines {
		lv := LineView{
			ID:          line.ID,
			Description: line.Description,
			Currency:    line.Currency,
			RateLine:    line.Display.RateLine,
			CalcLine:    line.Display.CalcLine,
		}
		if !line.Date.IsZero() {
			lv.Date = line.Date.Format("2006-01-02")
		}
		if !line.Amount.IsZero() {
			lv.Amount = line.Amount.StringFixed(2)
		}
		if line.Attachment != nil {
			lv.ReceiptName = line.Attachment.Filename
		}
		view.Lines = append(view.Lines, lv)
	}

	return view, nil
}
