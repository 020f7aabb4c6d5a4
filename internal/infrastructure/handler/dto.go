package handler

// UpdateLineRequest carries a single line edit. Nil fields are untouched.
type UpdateLineRequest struct {
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Currency    *string `json:"currency,omitempty"`
}

// UpdateDraftRequest carries report-level edits.
type UpdateDraftRequest struct {
	Category *string        `json:"category,omitempty"`
	Comment  *string        `json:"comment,omitempty"`
	Travel   *TravelDetails `json:"travel,omitempty"`
}

// TravelDetails mirrors the travel field set of the form.
type TravelDetails struct {
	Purpose   string `json:"purpose"`
	From      string `json:"from"`
	To        string `json:"to"`
	Departure string `json:"departure"`
	Return    string `json:"return"`
}

// LineResponse is one expense line as shown on screen.
type LineResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	RateLine    string `json:"rate_line,omitempty"`
	CalcLine    string `json:"calc_line,omitempty"`
	ReceiptName string `json:"receipt_name,omitempty"`
}

// DraftResponse is the full draft snapshot.
type DraftResponse struct {
	ID       string         `json:"id"`
	Category string         `json:"category"`
	Comment  string         `json:"comment,omitempty"`
	Travel   *TravelDetails `json:"travel,omitempty"`
	Lines    []LineResponse `json:"lines"`
	Total    string         `json:"total"`
}

// CreateDraftResponse is returned when a draft is opened.
type CreateDraftResponse struct {
	ID string `json:"id"`
}

// AddLineResponse is returned when a line is added.
type AddLineResponse struct {
	ID string `json:"id"`
}

// DropResponse reports which lines a file drop created.
type DropResponse struct {
	LineIDs []string `json:"line_ids"`
}

// SubmitResponse mirrors the submission endpoint's answer.
type SubmitResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
	ReportID string `json:"report_id,omitempty"`
}

// ReportLineResponse is one archived line of a submitted report.
type ReportLineResponse struct {
	Date           string `json:"date"`
	Description    string `json:"description"`
	AmountEUR      string `json:"amount_eur"`
	Currency       string `json:"currency"`
	OriginalAmount string `json:"original_amount"`
	ReceiptName    string `json:"receipt_name,omitempty"`
}

// ReportResponse is an archived report as served from the archive.
type ReportResponse struct {
	ID          string               `json:"id"`
	Category    string               `json:"category"`
	Comment     string               `json:"comment,omitempty"`
	Travel      *TravelDetails       `json:"travel,omitempty"`
	Lines       []ReportLineResponse `json:"lines"`
	TotalEUR    string               `json:"total_eur"`
	Status      string               `json:"status"`
	SubmittedAt string               `json:"submitted_at"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
