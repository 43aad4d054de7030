package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentReason is the enumerated cause of a manual correction.
type AdjustmentReason string

const (
	ReasonManualCorrection AdjustmentReason = "manual_correction"
	ReasonWaste            AdjustmentReason = "waste"
	ReasonSpillage         AdjustmentReason = "spillage"
	ReasonMeasurementError AdjustmentReason = "measurement_error"
	ReasonOther            AdjustmentReason = "other"
)

// AdjustmentReasons lists the accepted reasons in display order.
var AdjustmentReasons = []AdjustmentReason{
	ReasonManualCorrection,
	ReasonWaste,
	ReasonSpillage,
	ReasonMeasurementError,
	ReasonOther,
}

func (r AdjustmentReason) Valid() bool {
	for _, known := range AdjustmentReasons {
		if r == known {
			return true
		}
	}
	return false
}

// StockAdjustment represents the stock_adjustments table. Rows are
// immutable except for the approval fields, which are set at most once.
type StockAdjustment struct {
	ID                int64            `json:"id" db:"id"`
	StockID           int64            `json:"stock_id" db:"stock_id"`
	UserID            int64            `json:"user_id" db:"user_id"`
	PreviousTonnage   decimal.Decimal  `json:"previous_tonnage" db:"previous_tonnage"`
	NewTonnage        decimal.Decimal  `json:"new_tonnage" db:"new_tonnage"`
	AdjustmentAmount  decimal.Decimal  `json:"adjustment_amount" db:"adjustment_amount"`
	Reason            AdjustmentReason `json:"reason" db:"reason"`
	ReasonDescription string           `json:"reason_description" db:"reason_description"`
	ReferenceDocument *string          `json:"reference_document,omitempty" db:"reference_document"`
	Attachment        *string          `json:"attachment,omitempty" db:"attachment"`
	ApprovedBy        *int64           `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
}

// IsApproved reports whether the approval step has happened.
func (a *StockAdjustment) IsApproved() bool {
	return a.ApprovedBy != nil
}

// AdjustmentWithDetails adds the names shown in adjustment listings.
type AdjustmentWithDetails struct {
	StockAdjustment
	ContractorID   int64  `json:"contractor_id"`
	JettyID        int64  `json:"jetty_id"`
	ContractorName string `json:"contractor_name,omitempty"`
	JettyName      string `json:"jetty_name,omitempty"`
	UserName       string `json:"user_name,omitempty"`
	ApproverName   string `json:"approver_name,omitempty"`
}

// AdjustmentFilter filters for adjustment listings.
type AdjustmentFilter struct {
	StockID      *int64            `json:"stock_id,omitempty" form:"stock_id"`
	ContractorID *int64            `json:"contractor_id,omitempty" form:"contractor_id"`
	JettyID      *int64            `json:"jetty_id,omitempty" form:"jetty_id"`
	Reason       *AdjustmentReason `json:"reason,omitempty" form:"reason"`
	PendingOnly  bool              `json:"pending_only,omitempty" form:"pending_only"`
	Limit        int               `json:"limit,omitempty" form:"limit"`
	Offset       int               `json:"offset,omitempty" form:"offset"`
}
