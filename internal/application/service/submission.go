package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"regexp"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// calcAmountPattern extracts the trailing reporting-currency amount from a
// rendered calculation line. It must match whatever renderCalcLine produces;
// drift between the two silently corrupts submitted amounts, which is why
// the round trip is pinned by tests.
var calcAmountPattern = regexp.MustCompile(`= (\d+(?:\.\d+)?) ` + string(entity.ReportingCurrency) + `$`)

// parseConvertedAmount re-reads the reporting-currency amount from a
// rendered calculation line.
func parseConvertedAmount(calcLine string) (decimal.Decimal, bool) {
	match := calcAmountPattern.FindStringSubmatch(calcLine)
	if match == nil {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(match[1])
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// ValidationError is a user-correctable submission error. The draft is left
// untouched so the user can fix the field and resubmit.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionOutcome reports what the submission endpoint answered.
type SubmissionOutcome struct {
	Success  bool
	Redirect string
	Error    string
	ReportID string
}

// ErrSubmissionInFlight guards against double submits of the same draft.
var ErrSubmissionInFlight = errors.New("submission already in progress")

// Submit validates the draft, assembles the multipart payload, and sends it.
//
// Validation fails fast with the first error found. The reporting-currency
// amount for each foreign line is re-parsed from the line's rendered
// calculation text rather than recomputed; reporting-currency lines take
// their amount directly, formatted to two decimals. On any transport or
// backend failure the draft remains intact and submittable; on success the
// report is archived and the draft is closed.
func (s *DraftService) Submit(ctx context.Context, draftID string) (*SubmissionOutcome, error) {
	s.mu.Lock()
	d, ok := s.drafts[draftID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrDraftNotFound
	}
	if d.submitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	if err := validateDraft(d); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	report := s.assembleReportLocked(d)
	contentType, body, err := assemblePayloadLocked(d, report)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to assemble payload: %w", err)
	}

	d.submitting = true
	s.mu.Unlock()

	result, err := s.sender.Send(ctx, contentType, body)
	if err != nil {
		s.clearSubmitting(draftID)
		s.logger.Error("Submission transport failed", map[string]interface{}{
			"draft_id": draftID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("failed to submit report: %w", err)
	}

	if !result.Success {
		s.clearSubmitting(draftID)
		s.logger.Warn("Submission rejected", map[string]interface{}{
			"draft_id": draftID,
			"error":    result.Error,
		})
		return &SubmissionOutcome{Success: false, Error: result.Error}, nil
	}

	outcome := &SubmissionOutcome{Success: true, Redirect: result.Redirect}

	if s.reports != nil {
		if id, err := s.reports.Store(ctx, report); err != nil {
			// The backend accepted the report; a failed archive write is
			// an operational problem, not a submission failure.
			s.logger.Error("Failed to archive report", map[string]interface{}{
				"draft_id": draftID,
				"error":    err.Error(),
			})
		} else {
			outcome.ReportID = id
		}
	}

	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()

	s.logger.Info("Report submitted", map[string]interface{}{
		"draft_id":  draftID,
		"report_id": outcome.ReportID,
		"total_eur": report.TotalEUR.StringFixed(2),
	})

	return outcome, nil
}

func (s *DraftService) clearSubmitting(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[draftID]; ok {
		d.submitting = false
	}
}

// validateDraft returns the first validation problem, mirroring the order
// the form checks fields in.
func validateDraft(d *draft) error {
	if len(d.lines) == 0 {
		return &ValidationError{Message: "Please add at least one expense line"}
	}

	for i, line := range d.lines {
		if line.Date.IsZero() || line.Description == "" || line.Amount.IsZero() {
			return &ValidationError{Message: fmt.Sprintf("Please fill all required fields in expense line %d", i+1)}
		}
	}

	switch d.category {
	case entity.CategoryOther:
		if d.comment == "" {
			return &ValidationError{Message: "Please add a comment for other expenses"}
		}
	case entity.CategoryTravel:
		if d.travel.Purpose == "" || d.travel.From == "" || d.travel.To == "" ||
			d.travel.Departure == "" || d.travel.Return == "" {
			return &ValidationError{Message: "Please fill all travel details"}
		}
	}

	return nil
}

// lineReportingAmount derives a line's reporting-currency amount from
// on-screen state alone: the sanitized amount for reporting-currency lines,
// otherwise the value re-parsed from the rendered calculation text. When the
// display holds no parseable calculation the face-value amount is used,
// matching the fallback-rate degradation.
func lineReportingAmount(line *entity.ExpenseLine) decimal.Decimal {
	if line.Currency.IsReporting() {
		return line.Amount.Round(2)
	}
	if amount, ok := parseConvertedAmount(line.Display.CalcLine); ok {
		return amount
	}
	return line.Amount.Round(2)
}

// assembleReportLocked builds the archive record. Callers must hold mu.
func (s *DraftService) assembleReportLocked(d *draft) *entity.Report {
	report := &entity.Report{
		ID:          d.id,
		Category:    d.category,
		Status:      "pending",
		SubmittedAt: s.now(),
		TotalEUR:    decimal.Zero,
		Lines:       make([]entity.ReportLine, 0, len(d.lines)),
	}

	if d.category == entity.CategoryTravel {
		travel := d.travel
		report.Travel = &travel
		report.Comment = d.travel.Purpose
	} else {
		report.Comment = d.comment
	}

	for _, line := range d.lines {
		eurAmount := lineReportingAmount(line)
		rl := entity.ReportLine{
			Date:           line.Date.Format("2006-01-02"),
			Description:    line.Description,
			AmountEUR:      eurAmount,
			Currency:       line.Currency,
			OriginalAmount: line.Amount,
		}
		if line.Attachment != nil {
			rl.ReceiptName = line.Attachment.Filename
		}
		report.Lines = append(report.Lines, rl)
		report.TotalEUR = report.TotalEUR.Add(eurAmount)
	}

	return report
}

// assemblePayloadLocked renders the transport payload: repeated per-line
// keys plus the report-level fields. Callers must hold mu.
func assemblePayloadLocked(d *draft, report *entity.Report) (string, *bytes.Buffer, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("expense-type", d.category); err != nil {
		return "", nil, err
	}

	switch d.category {
	case entity.CategoryOther:
		if err := writer.WriteField("comment", d.comment); err != nil {
			return "", nil, err
		}
	case entity.CategoryTravel:
		travelFields := map[string]string{
			"purpose":   d.travel.Purpose,
			"from":      d.travel.From,
			"to":        d.travel.To,
			"departure": d.travel.Departure,
			"return":    d.travel.Return,
		}
		for _, key := range []string{"purpose", "from", "to", "departure", "return"} {
			if err := writer.WriteField(key, travelFields[key]); err != nil {
				return "", nil, err
			}
		}
	}

	for i, line := range d.lines {
		rl := report.Lines[i]
		fields := [][2]string{
			{"date[]", rl.Date},
			{"description[]", rl.Description},
			{"amount[]", rl.AmountEUR.StringFixed(2)},
			{"currency[]", string(rl.Currency)},
			{"original_amount[]", line.Amount.StringFixed(2)},
		}
		for _, f := range fields {
			if err := writer.WriteField(f[0], f[1]); err != nil {
				return "", nil, err
			}
		}

		if line.Attachment != nil {
			part, err := writer.CreateFormFile("receipt[]", line.Attachment.Filename)
			if err != nil {
				return "", nil, err
			}
			if _, err := part.Write(line.Attachment.Data); err != nil {
				return "", nil, err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return "", nil, err
	}

	return writer.FormDataContentType(), &buf, nil
}
