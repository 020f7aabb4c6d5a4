package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/service"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
)

// SubmitClient posts assembled report payloads to the submission endpoint.
type SubmitClient struct {
	url        string
	httpClient *http.Client
	logger     logger.Logger
}

// NewSubmitClient creates a new submission endpoint client
func NewSubmitClient(url string, httpClient *http.Client, log logger.Logger) *SubmitClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 60 * time.Second,
		}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &SubmitClient{
		url:        url,
		httpClient: httpClient,
		logger:     log,
	}
}

// Send transports the multipart payload. An error means nothing arrived and
// the caller may resubmit; a result with Success=false carries the backend's
// error message.
func (c *SubmitClient) Send(ctx context.Context, contentType string, body io.Reader) (*service.SubmissionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result service.SubmissionResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	c.logger.Info("Submission response received", map[string]interface{}{
		"status":  resp.StatusCode,
		"success": result.Success,
	})

	return &result, nil
}
