package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance represents the stock_balances table: one row per
// (contractor, jetty) pair that has ever received coal.
type StockBalance struct {
	ID           int64           `json:"id" db:"id"`
	ContractorID int64           `json:"contractor_id" db:"contractor_id"`
	JettyID      int64           `json:"jetty_id" db:"jetty_id"`
	Tonnage      decimal.Decimal `json:"tonnage" db:"tonnage"`
	LastUpdated  time.Time       `json:"last_updated" db:"last_updated"`
	Version      int64           `json:"version" db:"version"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// StockWithDetails includes contractor and jetty names.
type StockWithDetails struct {
	StockBalance
	ContractorName string `json:"contractor_name,omitempty"`
	JettyName      string `json:"jetty_name,omitempty"`
}

// StockFilter filters for stock listings.
type StockFilter struct {
	ContractorID *int64 `json:"contractor_id,omitempty" form:"contractor_id"`
	JettyID      *int64 `json:"jetty_id,omitempty" form:"jetty_id"`
	NonZeroOnly  bool   `json:"non_zero_only,omitempty" form:"non_zero_only"`
}
