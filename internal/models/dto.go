package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ===== REQUEST DTOs =====

// ProductionRequest DTO for a coal intake from a truck.
type ProductionRequest struct {
	ContractorID int64           `json:"contractor_id" validate:"required,gt=0"`
	JettyID      int64           `json:"jetty_id" validate:"required,gt=0"`
	TruckNumber  string          `json:"truck_number" validate:"required,max=50"`
	CoalGrade    string          `json:"coal_grade" validate:"max=30"`
	Tonnage      decimal.Decimal `json:"tonnage"`
	ProducedAt   *time.Time      `json:"produced_at"`
	Notes        string          `json:"notes" validate:"max=1000"`
	OperatorID   int64           `json:"-"` // taken from the request actor
}

// BargingRequest DTO for coal loaded onto a ship.
type BargingRequest struct {
	ContractorID int64           `json:"contractor_id" validate:"required,gt=0"`
	JettyID      int64           `json:"jetty_id" validate:"required,gt=0"`
	ShipName     string          `json:"ship_name" validate:"required,max=100"`
	VoyageNumber string          `json:"voyage_number" validate:"max=50"`
	Tonnage      decimal.Decimal `json:"tonnage"`
	BargedAt     *time.Time      `json:"barged_at"`
	Notes        string          `json:"notes" validate:"max=1000"`
	OperatorID   int64           `json:"-"` // taken from the request actor
}

// AdjustmentRequest DTO for a manual stock correction. AdjustmentAmount is
// signed: negative removes coal, positive adds it.
type AdjustmentRequest struct {
	StockID           int64            `json:"stock_id" validate:"required,gt=0"`
	AdjustmentAmount  decimal.Decimal  `json:"adjustment_amount"`
	Reason            AdjustmentReason `json:"reason" validate:"required,oneof=manual_correction waste spillage measurement_error other"`
	ReasonDescription string           `json:"reason_description" validate:"required,max=2000"`
	ReferenceDocument *string          `json:"reference_document" validate:"omitempty,max=255"`
	Attachment        *string          `json:"attachment" validate:"omitempty,max=500"`
	UserID            int64            `json:"-"` // taken from the request actor
}

// ===== RESPONSE DTOs =====

// ProductionResult is returned by a successful intake.
type ProductionResult struct {
	Production *Production   `json:"production"`
	Stock      *StockBalance `json:"stock"`
}

// BargingResult is returned by a successful outflow.
type BargingResult struct {
	Barging *Barging      `json:"barging"`
	Stock   *StockBalance `json:"stock"`
}

// AdjustmentResult is returned by a successful manual adjustment.
type AdjustmentResult struct {
	Adjustment *StockAdjustment `json:"adjustment"`
	Stock      *StockBalance    `json:"stock"`
}

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	Timestamp string      `json:"timestamp"`
}
