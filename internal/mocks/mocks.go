// internal/mocks/mocks.go
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/ThomasKLA10/expense-app/internal/domain/service"
	"github.com/stretchr/testify/mock"
)

// MockRateProvider mocks the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) GetRate(ctx context.Context, from, to entity.Currency, date time.Time) float64 {
	args := m.Called(ctx, from, to, date)
	return args.Get(0).(float64)
}

// MockReceiptScanner mocks the ReceiptScanner interface
type MockReceiptScanner struct {
	mock.Mock
}

func (m *MockReceiptScanner) ScanReceipt(ctx context.Context, filename string, data []byte) (*service.ScanResult, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

// MockSubmissionSender mocks the SubmissionSender interface
type MockSubmissionSender struct {
	mock.Mock

	// LastBody captures the payload of the most recent Send call so tests
	// can inspect the assembled multipart form.
	LastBody        []byte
	LastContentType string
}

func (m *MockSubmissionSender) Send(ctx context.Context, contentType string, body io.Reader) (*service.SubmissionResult, error) {
	data, _ := io.ReadAll(body)
	m.LastBody = data
	m.LastContentType = contentType

	args := m.Called(ctx, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmissionResult), args.Error(1)
}

// MockReportRepository mocks the ReportRepository interface
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Store(ctx context.Context, report *entity.Report) (string, error) {
	args := m.Called(ctx, report)
	return args.String(0), args.Error(1)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*entity.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Report), args.Error(1)
}
