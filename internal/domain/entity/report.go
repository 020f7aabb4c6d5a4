package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Report categories.
const (
	CategoryOther  = "other"
	CategoryTravel = "travel"
)

// TravelDetails carries the extra fields required for travel reports.
type TravelDetails struct {
	Purpose   string `json:"purpose"`
	From      string `json:"from"`
	To        string `json:"to"`
	Departure string `json:"departure"`
	Return    string `json:"return"`
}

// ReportLine is one archived line of a submitted report. AmountEUR is the
// reporting-currency amount as extracted at submission time.
type ReportLine struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	AmountEUR      decimal.Decimal `json:"amount_eur"`
	Currency       Currency        `json:"currency"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	ReceiptName    string          `json:"receipt_name,omitempty"`
}

// Report is the archived record of a successfully submitted expense report.
type Report struct {
	ID          string         `json:"id"`
	Category    string         `json:"category"`
	Comment     string         `json:"comment,omitempty"`
	Travel      *TravelDetails `json:"travel,omitempty"`
	Lines       []ReportLine   `json:"lines"`
	TotalEUR    decimal.Decimal `json:"total_eur"`
	Status      string         `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Validate ensures the archived report is internally consistent.
func (r *Report) Validate() error {
	if len(r.Lines) == 0 {
		return errors.New("report must contain at least one line")
	}
	if r.Category != CategoryOther && r.Category != CategoryTravel {
		return errors.New("category must be travel or other")
	}
	if r.Category == CategoryTravel && r.Travel == nil {
		return errors.New("travel report must carry travel details")
	}
	return nil
}
