package service

import (
	"context"
	"io"
)

// SubmissionResult is the backend's answer to a submitted expense report.
type SubmissionResult struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SubmissionSender transports an assembled multipart payload to the
// submission endpoint. A non-nil error means the payload never arrived and
// the report may be resubmitted as-is.
type SubmissionSender interface {
	Send(ctx context.Context, contentType string, body io.Reader) (*SubmissionResult, error)
}
