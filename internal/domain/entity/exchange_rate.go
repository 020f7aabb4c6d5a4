package entity

import (
	"time"
)

// ExchangeRate is a historical conversion rate for one currency pair on a
// given date. Rate converts one unit of From into To.
type ExchangeRate struct {
	From Currency  `json:"from"`
	To   Currency  `json:"to"`
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}
