package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
)

// BadgerReportRepository implements the report repository interface using BadgerDB
type BadgerReportRepository struct {
	db *badger.DB
}

// NewBadgerReportRepository creates a new BadgerDB report repository
func NewBadgerReportRepository(db *badger.DB) *BadgerReportRepository {
	return &BadgerReportRepository{db: db}
}

// Store saves a submitted report and returns its ID
func (r *BadgerReportRepository) Store(ctx context.Context, report *entity.Report) (string, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("report:"+report.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}

	return report.ID, nil
}

// FindByID retrieves a submitted report by its unique identifier
func (r *BadgerReportRepository) FindByID(ctx context.Context, id string) (*entity.Report, error) {
	var report entity.Report

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("report:" + id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("report not found: %s", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve report: %w", err)
	}

	return &report, nil
}
