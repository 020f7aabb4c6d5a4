package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	domainservice "github.com/ThomasKLA10/expense-app/internal/domain/service"
)

// allowedExtensions is the receipt file allow-list. Anything else is
// silently skipped during drop ingestion.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// AllowedReceiptFile reports whether the filename has an accepted extension.
func AllowedReceiptFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// DroppedFile is one file handed to drop ingestion.
type DroppedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// IngestReceipt attaches a receipt to a line and runs it through the OCR
// service. Recognized fields are applied exactly like manual edits: each one
// updates the line display and the aggregate total. Scan failures are logged
// and leave the line's fields untouched; they are never fatal.
func (s *DraftService) IngestReceipt(ctx context.Context, draftID, lineID, filename, contentType string, data []byte) error {
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
	line.Attachment = &entity.Attachment{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}
	s.mu.Unlock()

	result, err := s.scanner.ScanReceipt(ctx, filename, data)
	if err != nil {
		s.logger.Error("Receipt scan failed", map[string]interface{}{
			"draft_id": draftID,
			"line_id":  lineID,
			"filename": filename,
			"error":    err.Error(),
		})
		return nil
	}

	s.applyScanResult(ctx, draftID, lineID, result)
	return nil
}

// applyScanResult drives the three injection points in the fixed order
// date, amount, currency. Unrecognized fields are not applied; an
// out-of-set currency code counts as unrecognized.
func (s *DraftService) applyScanResult(ctx context.Context, draftID, lineID string, result *domainservice.ScanResult) {
	if result.Date != "" {
		if err := s.UpdateLine(ctx, draftID, lineID, LineChanges{Date: &result.Date}); err != nil {
			s.logger.Error("Failed to apply scanned date", map[string]interface{}{
				"draft_id": draftID, "line_id": lineID, "error": err.Error(),
			})
		}
	}
	if result.Total != "" {
		amount := entity.SanitizeAmount(result.Total).StringFixed(2)
		if err := s.UpdateLine(ctx, draftID, lineID, LineChanges{Amount: &amount}); err != nil {
			s.logger.Error("Failed to apply scanned amount", map[string]interface{}{
				"draft_id": draftID, "line_id": lineID, "error": err.Error(),
			})
		}
	}
	if result.Currency != "" {
		if _, err := entity.ParseCurrency(result.Currency); err != nil {
			s.logger.Warn("Scanned currency not in supported set", map[string]interface{}{
				"draft_id": draftID, "line_id": lineID, "currency": result.Currency,
			})
			return
		}
		if err := s.UpdateLine(ctx, draftID, lineID, LineChanges{Currency: &result.Currency}); err != nil {
			s.logger.Error("Failed to apply scanned currency", map[string]interface{}{
				"draft_id": draftID, "line_id": lineID, "error": err.Error(),
			})
		}
	}
}

// IngestDroppedFiles creates one line per accepted file and runs each
// through receipt ingestion strictly in drop order. A file's full scan and
// apply round-trip settles before the next file starts, so at most one
// drop-driven external call is in flight at a time. Files with a rejected
// extension are skipped without creating a line. Returns the IDs of the
// lines created.
func (s *DraftService) IngestDroppedFiles(ctx context.Context, draftID string, files []DroppedFile) ([]string, error) {
	created := make([]string, 0, len(files))

	for _, f := range files {
		if !AllowedReceiptFile(f.Name) {
			s.logger.Warn("Dropped file rejected", map[string]interface{}{
				"draft_id": draftID,
				"filename": f.Name,
			})
			continue
		}

		lineID, err := s.AddLine(ctx, draftID)
		if err != nil {
			return created, err
		}
		created = append(created, lineID)

		if err := s.IngestReceipt(ctx, draftID, lineID, f.Name, f.ContentType, f.Data); err != nil {
			return created, err
		}
	}

	return created, nil
}
