package service

import (
	"context"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
)

// RateProvider resolves historical conversion rates.
//
// GetRate converts one unit of from into to at the given date. It never
// fails: when from equals to it returns 1 without consulting any source, and
// when the external source cannot produce a usable rate it falls back to 1 so
// conversions degrade to face value instead of blocking the caller. Results
// are not cached; identical calls re-query the source.
type RateProvider interface {
	GetRate(ctx context.Context, from, to entity.Currency, date time.Time) float64
}
