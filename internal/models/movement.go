package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Production represents the productions table: coal trucked into a jetty
// stockpile. Append-only.
type Production struct {
	ID           int64           `json:"id" db:"id"`
	ContractorID int64           `json:"contractor_id" db:"contractor_id"`
	JettyID      int64           `json:"jetty_id" db:"jetty_id"`
	OperatorID   int64           `json:"operator_id" db:"operator_id"`
	TruckNumber  string          `json:"truck_number" db:"truck_number"`
	CoalGrade    string          `json:"coal_grade" db:"coal_grade"`
	Tonnage      decimal.Decimal `json:"tonnage" db:"tonnage"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	ProducedAt   time.Time       `json:"produced_at" db:"produced_at"`
	Notes        string          `json:"notes" db:"notes"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Barging represents the bargings table: coal loaded from a jetty onto a
// ship or barge. Append-only.
type Barging struct {
	ID           int64           `json:"id" db:"id"`
	ContractorID int64           `json:"contractor_id" db:"contractor_id"`
	JettyID      int64           `json:"jetty_id" db:"jetty_id"`
	OperatorID   int64           `json:"operator_id" db:"operator_id"`
	ShipName     string          `json:"ship_name" db:"ship_name"`
	VoyageNumber string          `json:"voyage_number" db:"voyage_number"`
	Tonnage      decimal.Decimal `json:"tonnage" db:"tonnage"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	BargedAt     time.Time       `json:"barged_at" db:"barged_at"`
	Notes        string          `json:"notes" db:"notes"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// MovementFilter filters production and barging listings.
type MovementFilter struct {
	ContractorID *int64     `json:"contractor_id,omitempty" form:"contractor_id"`
	JettyID      *int64     `json:"jetty_id,omitempty" form:"jetty_id"`
	From         *time.Time `json:"from,omitempty" form:"from" time_format:"2006-01-02"`
	To           *time.Time `json:"to,omitempty" form:"to" time_format:"2006-01-02"`
	Limit        int        `json:"limit,omitempty" form:"limit"`
	Offset       int        `json:"offset,omitempty" form:"offset"`
}
