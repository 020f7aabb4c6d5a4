package service

import (
	"context"
	"errors"
	"testing"

	domainservice "github.com/ThomasKLA10/expense-app/internal/domain/service"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/ThomasKLA10/expense-app/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIngestService(rates *fakeRates, scanner *mocks.MockReceiptScanner) *DraftService {
	s := NewDraftService(rates, scanner, nil, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))
	s.now = testNow
	return s
}

func TestAllowedReceiptFile(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.PNG", "c.jpg", "d.jpeg", "e.gif"} {
		assert.True(t, AllowedReceiptFile(name), name)
	}
	for _, name := range []string{"a.txt", "b.exe", "c", "d.pdf.sh", "e.svg"} {
		assert.False(t, AllowedReceiptFile(name), name)
	}
}

func TestIngestReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("Recognized fields drive the recompute path", func(t *testing.T) {
		rates := &fakeRates{fn: constantRate(2)}
		scanner := new(mocks.MockReceiptScanner)
		scanner.On("ScanReceipt", mock.Anything, "receipt.png", []byte("img")).
			Return(&domainservice.ScanResult{
				Date:     "2024-02-10",
				Total:    "42.5",
				Currency: "GBP",
			}, nil).Once()

		s := newIngestService(rates, scanner)
		draftID := s.CreateDraft(ctx)
		lineID, err := s.AddLine(ctx, draftID)
		require.NoError(t, err)

		require.NoError(t, s.IngestReceipt(ctx, draftID, lineID, "receipt.png", "image/png", []byte("img")))

		line := lineView(t, s, draftID, lineID)
		assert.Equal(t, "2024-02-10", line.Date)
		assert.Equal(t, "42.50", line.Amount)
		assert.Equal(t, "GBP", string(line.Currency))
		assert.Equal(t, "42.50 × 2.0000 = 85.00 EUR", line.CalcLine)
		assert.Equal(t, "receipt.png", line.ReceiptName)

		view, err := s.Snapshot(draftID)
		require.NoError(t, err)
		assert.Equal(t, "€85.00", view.Total)

		scanner.AssertExpectations(t)
	})

	t.Run("Scan failure keeps the line untouched", func(t *testing.T) {
		rates := &fakeRates{}
		scanner := new(mocks.MockReceiptScanner)
		scanner.On("ScanReceipt", mock.Anything, "bad.pdf", mock.Anything).
			Return(nil, errors.New("ocr offline")).Once()

		s := newIngestService(rates, scanner)
		draftID := s.CreateDraft(ctx)
		lineID, err := s.AddLine(ctx, draftID)
		require.NoError(t, err)

		// Not fatal: the error stays in the diagnostic log.
		require.NoError(t, s.IngestReceipt(ctx, draftID, lineID, "bad.pdf", "application/pdf", []byte("x")))

		line := lineView(t, s, draftID, lineID)
		assert.Empty(t, line.Date)
		assert.Empty(t, line.Amount)
		assert.Equal(t, "EUR", string(line.Currency))
		assert.Equal(t, "bad.pdf", line.ReceiptName, "attachment is kept even when the scan fails")
	})

	t.Run("Missing fields are not applied", func(t *testing.T) {
		rates := &fakeRates{}
		scanner := new(mocks.MockReceiptScanner)
		scanner.On("ScanReceipt", mock.Anything, mock.Anything, mock.Anything).
			Return(&domainservice.ScanResult{Total: "12"}, nil).Once()

		s := newIngestService(rates, scanner)
		draftID := s.CreateDraft(ctx)
		lineID, err := s.AddLine(ctx, draftID)
		require.NoError(t, err)

		require.NoError(t, s.IngestReceipt(ctx, draftID, lineID, "r.jpg", "image/jpeg", []byte("x")))

		line := lineView(t, s, draftID, lineID)
		assert.Empty(t, line.Date)
		assert.Equal(t, "12.00", line.Amount)
		assert.Equal(t, "EUR", string(line.Currency))
	})

	t.Run("Out-of-set currency counts as unrecognized", func(t *testing.T) {
		rates := &fakeRates{}
		scanner := new(mocks.MockReceiptScanner)
		scanner.On("ScanReceipt", mock.Anything, mock.Anything, mock.Anything).
			Return(&domainservice.ScanResult{Total: "30", Currency: "JPY"}, nil).Once()

		s := newIngestService(rates, scanner)
		draftID := s.CreateDraft(ctx)
		lineID, err := s.AddLine(ctx, draftID)
		require.NoError(t, err)

		require.NoError(t, s.IngestReceipt(ctx, draftID, lineID, "r.jpg", "image/jpeg", []byte("x")))

		line := lineView(t, s, draftID, lineID)
		assert.Equal(t, "EUR", string(line.Currency))
		assert.Equal(t, "30.00", line.Amount)
	})
}

func TestIngestDroppedFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("One line per accepted file, in drop order", func(t *testing.T) {
		rates := &fakeRates{}
		scanner := new(mocks.MockReceiptScanner)
		scanner.On("ScanReceipt", mock.Anything, "first.pdf", mock.Anything).
			Return(&domainservice.ScanResult{Total: "10"}, nil).Once()
		scanner.On("ScanReceipt", mock.Anything, "second.jpg", mock.Anything).
			Return(&domainservice.ScanResult{Total: "20"}, nil).Once()

		s := newIngestService(rates, scanner)
		draftID := s.CreateDraft(ctx)

		created, err := s.IngestDroppedFiles(ctx, draftID, []DroppedFile{
			{Name: "first.pdf", ContentType: "application/pdf", Data: []byte("a")},
			{Name: "notes.txt", ContentType: "text/plain", Data: []byte("b")},
			{Name: "second.jpg", ContentType: "image/jpeg", Data: []byte("c")},
		})
		require.NoError(t, err)
		assert.Len(t, created, 2, "the invalid file must not create a line")

		view, err := s.Snapshot(draftID)
		require.NoError(t, err)
		require.Len(t, view.Lines, 2)
		assert.Equal(t, "first.pdf", view.Lines[0].ReceiptName)
		assert.Equal(t, "10.00", view.Lines[0].Amount)
		assert.Equal(t, "second.jpg", view.Lines[1].ReceiptName)
		assert.Equal(t, "20.00", view.Lines[1].Amount)

		scanner.AssertExpectations(t)
	})

	t.Run("Unknown draft", func(t *testing.T) {
		s := newIngestService(&fakeRates{}, new(mocks.MockReceiptScanner))
		_, err := s.IngestDroppedFiles(ctx, "missing", []DroppedFile{{Name: "a.pdf"}})
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})
}

func TestDeleteLineReleasesAttachment(t *testing.T) {
	ctx := context.Background()

	rates := &fakeRates{}
	scanner := new(mocks.MockReceiptScanner)
	scanner.On("ScanReceipt", mock.Anything, mock.Anything, mock.Anything).
		Return(&domainservice.ScanResult{}, nil).Once()

	s := newIngestService(rates, scanner)
	draftID := s.CreateDraft(ctx)
	lineID, err := s.AddLine(ctx, draftID)
	require.NoError(t, err)

	require.NoError(t, s.IngestReceipt(ctx, draftID, lineID, "r.png", "image/png", []byte("x")))
	require.NotNil(t, s.Attachment(draftID, lineID))

	require.NoError(t, s.DeleteLine(ctx, draftID, lineID))
	assert.Nil(t, s.Attachment(draftID, lineID), "a deleted line's attachment must be unreachable")
}
