package repository

import (
	"context"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
)

// ReportRepository defines the interface for archived report storage
type ReportRepository interface {
	// Store saves a submitted report and returns its ID
	Store(ctx context.Context, report *entity.Report) (string, error)

	// FindByID retrieves a submitted report by its unique identifier
	FindByID(ctx context.Context, id string) (*entity.Report, error)
}
