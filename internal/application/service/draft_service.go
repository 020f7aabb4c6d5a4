// Package service implements the expense draft engine: the mutable line
// store, per-line conversion rendering, the aggregate total, ingestion of
// OCR and dropped files, and submission assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/ThomasKLA10/expense-app/internal/domain/repository"
	domainservice "github.com/ThomasKLA10/expense-app/internal/domain/service"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for lookups against the draft registry.
var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrLineNotFound  = errors.New("expense line not found")
)

// draft is one active report draft: the ordered line collection plus the
// report-level fields and the rendered total.
type draft struct {
	id       string
	category string
	comment  string
	travel   entity.TravelDetails
	lines    []*entity.ExpenseLine

	totalDisplay string
	// totalRev increases with every change that invalidates the total; a
	// sweep whose captured revision is stale on completion is discarded.
	totalRev uint64

	submitting bool
}

func (d *draft) findLine(lineID string) *entity.ExpenseLine {
	for _, l := range d.lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

func (d *draft) removeLine(lineID string) *entity.ExpenseLine {
	for i, l := range d.lines {
		if l.ID == lineID {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return l
		}
	}
	return nil
}

// DraftService owns every active draft. All draft state is mutated under one
// lock; rate lookups and external calls happen outside it, so edits on
// different lines overlap while each line's display stays governed by its
// revision counter.
type DraftService struct {
	mu     sync.RWMutex
	drafts map[string]*draft

	rates   domainservice.RateProvider
	scanner domainservice.ReceiptScanner
	sender  domainservice.SubmissionSender
	reports repository.ReportRepository
	logger  logger.Logger
	now     func() time.Time
}

// NewDraftService creates a new draft service
func NewDraftService(
	rates domainservice.RateProvider,
	scanner domainservice.ReceiptScanner,
	sender domainservice.SubmissionSender,
	reports repository.ReportRepository,
	log logger.Logger,
) *DraftService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &DraftService{
		drafts:  make(map[string]*draft),
		rates:   rates,
		scanner: scanner,
		sender:  sender,
		reports: reports,
		logger:  log,
		now:     time.Now,
	}
}

// CreateDraft opens a new empty draft and returns its ID.
func (s *DraftService) CreateDraft(ctx context.Context) string {
	d := &draft{
		id:           uuid.New().String(),
		category:     entity.CategoryOther,
		totalDisplay: entity.ReportingCurrency.Symbol() + "0.00",
	}

	s.mu.Lock()
	s.drafts[d.id] = d
	s.mu.Unlock()

	s.logger.Info("Draft created", map[string]interface{}{"draft_id": d.id})
	return d.id
}

// AddLine appends an empty line to the draft and returns the line ID.
func (s *DraftService) AddLine(ctx context.Context, draftID string) (string, error) {
	line := &entity.ExpenseLine{
		ID:       uuid.New().String(),
		Amount:   decimal.Zero,
		Currency: entity.ReportingCurrency,
	}

	s.mu.Lock()
	d, ok := s.drafts[draftID]
	if !ok {
		s.mu.Unlock()
		return "", ErrDraftNotFound
	}
	d.lines = append(d.lines, line)
	totalRev := s.invalidateTotalLocked(d)
	s.mu.Unlock()

	s.recomputeTotal(ctx, draftID, totalRev)
	return line.ID, nil
}

// DeleteLine removes a line and releases its attachment. Any lookup already
// in flight for the line resolves against a dead ID and is discarded.
func (s *DraftService) DeleteLine(ctx context.Context, draftID, lineID string) error {
	s.mu.Lock()
	d, ok := s.drafts[draftID]
	if !ok {
		s.mu.Unlock()
		return ErrDraftNotFound
	}
	line := d.removeLine(lineID)
	if line == nil {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	line.Attachment = nil
	totalRev := s.invalidateTotalLocked(d)
	s.mu.Unlock()

	s.logger.Info("Line deleted", map[string]interface{}{
		"draft_id": draftID,
		"line_id":  lineID,
	})

	s.recomputeTotal(ctx, draftID, totalRev)
	return nil
}

// LineChanges carries the fields of a single edit. Nil pointers leave the
// field untouched.
type LineChanges struct {
	Date        *string // YYYY-MM-DD, empty clears the date
	Description *string
	Amount      *string // sanitized before use
	Currency    *string // must be a supported code
}

// UpdateLine applies one edit to a line and runs the full recompute path:
// the line's conversion display followed by the aggregate total.
func (s *DraftService) UpdateLine(ctx context.Context, draftID, lineID string, changes LineChanges) error {
	s.mu.Lock()
	d, ok := s.drafts[draftID]
	if !ok {
		s.mu.Unlock()
		return ErrDraftNotFound
	}
	line := d.findLine(lineID)
	if line == nil {
		s.mu.Unlock()
		return ErrLineNotFound
	}

	// Validate every field before mutating anything: a rejected edit must
	// leave the line, its display, and the total exactly as they were.
	var newDate *time.Time
	if changes.Date != nil {
		date := time.Time{}
		if *changes.Date != "" {
			parsed, err := time.Parse("2006-01-02", *changes.Date)
			if err != nil {
				s.mu.Unlock()
				return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *changes.Date)
			}
			date = parsed
		}
		newDate = &date
	}
	var newCurrency *entity.Currency
	if changes.Currency != nil {
		currency, err := entity.ParseCurrency(*changes.Currency)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		newCurrency = &currency
	}

	if newDate != nil {
		line.Date = *newDate
	}
	if changes.Description != nil {
		line.Description = *changes.Description
	}
	if changes.Amount != nil {
		line.Amount = entity.SanitizeAmount(*changes.Amount)
	}
	if newCurrency != nil {
		line.Currency = *newCurrency
	}

	rev := line.Touch()
	totalRev := s.invalidateTotalLocked(d)

	// A reporting-currency line must never show a stale conversion, so the
	// panel is cleared in the same critical section as the transition.
	if line.Currency.IsReporting() || line.Amount.IsZero() {
		line.Display = entity.ConversionDisplay{}
	}
	s.mu.Unlock()

	s.updateLineDisplay(ctx, draftID, lineID, rev)
	s.recomputeTotal(ctx, draftID, totalRev)
	return nil
}

// SetCategory switches the report category and recomputes the total, the
// same way the category toggle on the form does.
func (s *DraftService) SetCategory(ctx context.Context, draftID, category string) error {
	if category != entity.CategoryOther && category != entity.CategoryTravel {
		return fmt.Errorf("unknown category %q", category)
	}

	s.mu.Lock()
	d, ok := s.drafts[draftID]
	if !ok {
		s.mu.Unlock()
		return ErrDraftNotFound
	}
	d.category = category
	totalRev := s.invalidateTotalLocked(d)
	s.mu.Unlock()

	s.recomputeTotal(ctx, draftID, totalRev)
	return nil
}

// SetComment sets the report-level comment used by "other" reports.
func (s *DraftService) SetComment(ctx context.Context, draftID, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return ErrDraftNotFound
	}
	d.comment = comment
	return nil
}

// SetTravel sets the travel details used by "travel" reports.
func (s *DraftService) SetTravel(ctx context.Context, draftID string, travel entity.TravelDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return ErrDraftNotFound
	}
	d.travel = travel
	return nil
}

// Attachment returns the receipt owned by a line, or nil when the line has
// none or no longer exists.
func (s *DraftService) Attachment(draftID, lineID string) *entity.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil
	}
	line := d.findLine(lineID)
	if line == nil {
		return nil
	}
	return line.Attachment
}

// invalidateTotalLocked bumps the draft's total revision. Callers must hold mu.
func (s *DraftService) invalidateTotalLocked(d *draft) uint64 {
	d.totalRev++
	return d.totalRev
}
