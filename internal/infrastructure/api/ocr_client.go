package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/service"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
)

// OCRClient submits receipt files to the external OCR service as a single
// multipart POST. The service either wraps its fields under a "results" key
// or returns them at the top level; both shapes are accepted. Fields the
// service did not recognize are left empty in the result.
type OCRClient struct {
	url        string
	httpClient *http.Client
	logger     logger.Logger
}

// NewOCRClient creates a new OCR service client
func NewOCRClient(url string, httpClient *http.Client, log logger.Logger) *OCRClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &OCRClient{
		url:        url,
		httpClient: httpClient,
		logger:     log,
	}
}

// ScanReceipt sends the file for field extraction.
func (c *OCRClient) ScanReceipt(ctx context.Context, filename string, data []byte) (*service.ScanResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d", resp.StatusCode)
	}

	result, err := parseScanResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Receipt scanned", map[string]interface{}{
		"filename": filename,
		"date":     result.Date,
		"total":    result.Total,
		"currency": result.Currency,
	})

	return result, nil
}

// parseScanResponse accepts either {"results": {...}} or the bare object.
func parseScanResponse(body []byte) (*service.ScanResult, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}

	fields := payload
	if wrapped, ok := payload["results"].(map[string]interface{}); ok {
		fields = wrapped
	}

	if errMsg, ok := fields["error"].(string); ok && errMsg != "" {
		return nil, fmt.Errorf("OCR service error: %s", errMsg)
	}

	return &service.ScanResult{
		Date:     stringField(fields, "date"),
		Total:    numericField(fields, "total"),
		Currency: stringField(fields, "currency"),
	}, nil
}

func stringField(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}

func numericField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
