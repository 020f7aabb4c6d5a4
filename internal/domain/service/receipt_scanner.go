package service

import (
	"context"
)

// ScanResult holds the fields a receipt scan recognized. Empty fields were
// not found on the receipt and must not be applied to the line.
type ScanResult struct {
	Date     string // ISO YYYY-MM-DD
	Total    string // numeric string
	Currency string // enumerated code
}

// ReceiptScanner defines the interface for the external OCR service.
type ReceiptScanner interface {
	// ScanReceipt submits a receipt file and returns the recognized fields.
	ScanReceipt(ctx context.Context, filename string, data []byte) (*ScanResult, error)
}
