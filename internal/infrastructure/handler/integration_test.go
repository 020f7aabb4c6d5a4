// internal/infrastructure/handler/integration_test.go
package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ThomasKLA10/expense-app/internal/application/service"
	domainservice "github.com/ThomasKLA10/expense-app/internal/domain/service"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/db"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/handler"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/ThomasKLA10/expense-app/internal/mocks"
	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupTestServer wires the full stack with mocked external services backed
// by a throwaway BadgerDB.
func setupTestServer(rates domainservice.RateProvider, scanner domainservice.ReceiptScanner,
	sender domainservice.SubmissionSender) (*httptest.Server, *badger.DB, func(), error) {
	tempDir, err := os.MkdirTemp("", "badger-test")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	badgerOpts := badger.DefaultOptions(tempDir)
	badgerOpts.Logger = nil
	badgerOpts.SyncWrites = false

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	log := logger.NewJSONLogger(io.Discard, logger.ErrorLevel)
	reportRepo := db.NewBadgerReportRepository(badgerDB)
	draftService := service.NewDraftService(rates, scanner, sender, reportRepo, log)

	router := mux.NewRouter()
	handler.NewDraftHandler(draftService, log).RegisterRoutes(router)
	handler.NewReportHandler(reportRepo, log).RegisterRoutes(router)

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		badgerDB.Close()
		os.RemoveAll(tempDir)
	}

	return server, badgerDB, cleanup, nil
}

func createDraft(t *testing.T, serverURL string) string {
	t.Helper()
	resp, err := http.Post(serverURL+"/drafts", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var createResp handler.CreateDraftResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&createResp))
	require.NotEmpty(t, createResp.ID)
	return createResp.ID
}

func addLine(t *testing.T, serverURL, draftID string) string {
	t.Helper()
	resp, err := http.Post(serverURL+"/drafts/"+draftID+"/lines", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var lineResp handler.AddLineResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lineResp))
	return lineResp.ID
}

func patchJSON(t *testing.T, url, body string) (*http.Response, handler.DraftResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var draft handler.DraftResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&draft))
	}
	return resp, draft
}

func TestDraftEditingFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rates := new(mocks.MockRateProvider)
	rates.On("GetRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0.9)

	server, _, cleanup, err := setupTestServer(rates, nil, nil)
	require.NoError(t, err)
	defer cleanup()

	draftID := createDraft(t, server.URL)
	lineID := addLine(t, server.URL, draftID)

	// Edit the line into a foreign-currency expense.
	resp, draft := patchJSON(t, server.URL+"/drafts/"+draftID+"/lines/"+lineID,
		`{"date": "2024-01-15", "description": "Hotel", "amount": "100", "currency": "GBP"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, draft.Lines, 1)
	assert.Equal(t, "2024-01-15", draft.Lines[0].Date)
	assert.Equal(t, "Hotel", draft.Lines[0].Description)
	assert.Equal(t, "100.00", draft.Lines[0].Amount)
	assert.Equal(t, "GBP", draft.Lines[0].Currency)
	assert.Equal(t, "Historic rate: 1 GBP = 0.9000 EUR", draft.Lines[0].RateLine)
	assert.Equal(t, "100.00 × 0.9000 = 90.00 EUR", draft.Lines[0].CalcLine)
	assert.Equal(t, "€90.00", draft.Total)

	// The snapshot endpoint returns the same state.
	getResp, err := http.Get(server.URL + "/drafts/" + draftID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var snapshot handler.DraftResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&snapshot))
	assert.Equal(t, draft, snapshot)

	// Deleting the line brings the total back to zero.
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/drafts/"+draftID+"/lines/"+lineID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	var afterDelete handler.DraftResponse
	require.NoError(t, json.NewDecoder(delResp.Body).Decode(&afterDelete))
	assert.Empty(t, afterDelete.Lines)
	assert.Equal(t, "€0.00", afterDelete.Total)
}

func TestReceiptUploadAndDrop(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rates := new(mocks.MockRateProvider)
	rates.On("GetRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(1.0)

	scanner := new(mocks.MockReceiptScanner)
	scanner.On("ScanReceipt", mock.Anything, "receipt.png", mock.Anything).
		Return(&domainservice.ScanResult{Date: "2024-02-10", Total: "42.5", Currency: "EUR"}, nil)
	scanner.On("ScanReceipt", mock.Anything, "dropped.pdf", mock.Anything).
		Return(&domainservice.ScanResult{Total: "10"}, nil)

	server, _, cleanup, err := setupTestServer(rates, scanner, nil)
	require.NoError(t, err)
	defer cleanup()

	draftID := createDraft(t, server.URL)
	lineID := addLine(t, server.URL, draftID)

	t.Run("Upload applies scanned fields", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "receipt.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		resp, err := http.Post(server.URL+"/drafts/"+draftID+"/lines/"+lineID+"/receipt",
			writer.FormDataContentType(), &buf)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var draft handler.DraftResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&draft))
		require.Len(t, draft.Lines, 1)
		assert.Equal(t, "2024-02-10", draft.Lines[0].Date)
		assert.Equal(t, "42.50", draft.Lines[0].Amount)
		assert.Equal(t, "receipt.png", draft.Lines[0].ReceiptName)
	})

	t.Run("Disallowed extension rejected", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("not a receipt"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		resp, err := http.Post(server.URL+"/drafts/"+draftID+"/lines/"+lineID+"/receipt",
			writer.FormDataContentType(), &buf)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Drop creates lines for accepted files only", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for _, name := range []string{"dropped.pdf", "skipped.txt"} {
			part, err := writer.CreateFormFile("files[]", name)
			require.NoError(t, err)
			_, err = part.Write([]byte("data"))
			require.NoError(t, err)
		}
		require.NoError(t, writer.Close())

		resp, err := http.Post(server.URL+"/drafts/"+draftID+"/files",
			writer.FormDataContentType(), &buf)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var dropResp handler.DropResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&dropResp))
		assert.Len(t, dropResp.LineIDs, 1)
	})
}

func TestSubmissionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rates := new(mocks.MockRateProvider)
	rates.On("GetRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(1.0)

	sender := new(mocks.MockSubmissionSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(&domainservice.SubmissionResult{Success: true, Redirect: "/receipt"}, nil)

	server, _, cleanup, err := setupTestServer(rates, nil, sender)
	require.NoError(t, err)
	defer cleanup()

	draftID := createDraft(t, server.URL)
	lineID := addLine(t, server.URL, draftID)

	// Submitting an incomplete draft returns the first validation error.
	resp, err := http.Post(server.URL+"/drafts/"+draftID+"/submit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "Please fill all required fields in expense line 1", errResp.Error)

	// Complete the draft and submit again.
	lineResp, _ := patchJSON(t, server.URL+"/drafts/"+draftID+"/lines/"+lineID,
		`{"date": "2024-01-10", "description": "Taxi", "amount": "20", "currency": "EUR"}`)
	assert.Equal(t, http.StatusOK, lineResp.StatusCode)
	draftResp, _ := patchJSON(t, server.URL+"/drafts/"+draftID,
		`{"comment": "January expenses"}`)
	assert.Equal(t, http.StatusOK, draftResp.StatusCode)

	resp2, err := http.Post(server.URL+"/drafts/"+draftID+"/submit", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var submitResp handler.SubmitResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&submitResp))
	assert.True(t, submitResp.Success)
	assert.Equal(t, "/receipt", submitResp.Redirect)
	require.NotEmpty(t, submitResp.ReportID)

	// The archived report is now served from the reports endpoint.
	reportResp, err := http.Get(server.URL + "/reports/" + submitResp.ReportID)
	require.NoError(t, err)
	defer reportResp.Body.Close()
	assert.Equal(t, http.StatusOK, reportResp.StatusCode)

	var report handler.ReportResponse
	require.NoError(t, json.NewDecoder(reportResp.Body).Decode(&report))
	assert.Equal(t, "January expenses", report.Comment)
	assert.Equal(t, "pending", report.Status)
	assert.Equal(t, "20.00", report.TotalEUR)

	// The draft itself is gone.
	goneResp, err := http.Get(server.URL + "/drafts/" + draftID)
	require.NoError(t, err)
	defer goneResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, goneResp.StatusCode)
}

func TestErrorHandling(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	rates := new(mocks.MockRateProvider)
	rates.On("GetRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(1.0)

	server, _, cleanup, err := setupTestServer(rates, nil, nil)
	require.NoError(t, err)
	defer cleanup()

	t.Run("Unknown draft", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/drafts/nonexistent")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Unknown line", func(t *testing.T) {
		draftID := createDraft(t, server.URL)
		resp, _ := patchJSON(t, server.URL+"/drafts/"+draftID+"/lines/nonexistent",
			`{"amount": "10"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Invalid currency", func(t *testing.T) {
		draftID := createDraft(t, server.URL)
		lineID := addLine(t, server.URL, draftID)
		resp, _ := patchJSON(t, server.URL+"/drafts/"+draftID+"/lines/"+lineID,
			`{"currency": "JPY"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Invalid date", func(t *testing.T) {
		draftID := createDraft(t, server.URL)
		lineID := addLine(t, server.URL, draftID)
		resp, _ := patchJSON(t, server.URL+"/drafts/"+draftID+"/lines/"+lineID,
			`{"date": "15/01/2024"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unknown report", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/reports/nonexistent")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
