package services

import (
	"errors"
	"fmt"
	"time"

	"coal-stock-service/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors, matched with errors.Is. The structured errors below
// unwrap to one of these.
var (
	ErrNotFound               = errors.New("not found")
	ErrInactive               = errors.New("inactive")
	ErrInvalidTonnage         = errors.New("invalid tonnage")
	ErrInvalidReason          = errors.New("invalid adjustment reason")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrNoStockFound           = errors.New("no stock found")
	ErrConcurrentModification = errors.New("stock was modified by another operation; try again")
	ErrAlreadyApproved        = errors.New("adjustment already approved")
	ErrSelfApproval           = errors.New("adjustment cannot be approved by its author")
	ErrActorRequired          = errors.New("actor is required")
	ErrDescriptionRequired    = errors.New("reason description is required")
)

// NotFoundError reports a referenced row that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InactiveError reports a referenced row that exists but is switched off.
type InactiveError struct {
	Entity string
	ID     int64
	Name   string
}

func (e *InactiveError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %d (%s) is inactive", e.Entity, e.ID, e.Name)
	}
	return fmt.Sprintf("%s %d is inactive", e.Entity, e.ID)
}

func (e *InactiveError) Unwrap() error {
	return ErrInactive
}

// InvalidTonnageError reports an amount with the wrong sign or magnitude.
type InvalidTonnageError struct {
	Field string
	Value decimal.Decimal
}

func (e *InvalidTonnageError) Error() string {
	field := e.Field
	if field == "" {
		field = "tonnage"
	}
	switch {
	case e.Value.IsNegative() && field == "tonnage":
		return fmt.Sprintf("tonnage cannot be negative: %s", e.Value.String())
	case e.Value.IsZero() && field == "tonnage":
		return "tonnage must be greater than zero"
	case e.Value.IsZero():
		return fmt.Sprintf("%s must not be zero", field)
	default:
		return fmt.Sprintf("%s %s is out of range (must be below %s)", field, e.Value.String(), models.MaxTonnage.String())
	}
}

func (e *InvalidTonnageError) Unwrap() error {
	return ErrInvalidTonnage
}

// InsufficientStockError reports an outflow or negative adjustment larger
// than the balance. Nothing was written.
type InsufficientStockError struct {
	ContractorID int64
	JettyID      int64
	Available    decimal.Decimal
	Requested    decimal.Decimal
	// Adjustment is set when the delta came from a manual adjustment.
	Adjustment bool
}

func (e *InsufficientStockError) Error() string {
	msg := fmt.Sprintf("insufficient stock: available %s, requested %s",
		models.FormatTonnage(e.Available), models.FormatTonnage(e.Requested))
	if e.Adjustment {
		msg += "; resulting stock cannot be negative"
	}
	return msg
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NoStockFoundError reports an outflow against a pair that never received
// coal.
type NoStockFoundError struct {
	ContractorID int64
	JettyID      int64
}

func (e *NoStockFoundError) Error() string {
	return fmt.Sprintf("no stock found for contractor %d at jetty %d", e.ContractorID, e.JettyID)
}

func (e *NoStockFoundError) Unwrap() error {
	return ErrNoStockFound
}

// ConcurrentModificationError is returned when every attempt of the update
// protocol lost its version check.
type ConcurrentModificationError struct {
	ContractorID int64
	JettyID      int64
	Attempts     int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s (contractor %d, jetty %d, %d attempts)",
		ErrConcurrentModification.Error(), e.ContractorID, e.JettyID, e.Attempts)
}

func (e *ConcurrentModificationError) Unwrap() error {
	return ErrConcurrentModification
}

// AlreadyApprovedError reports a second approval of a journal entry.
type AlreadyApprovedError struct {
	AdjustmentID int64
	ApprovedBy   int64
	ApprovedAt   time.Time
}

func (e *AlreadyApprovedError) Error() string {
	return fmt.Sprintf("adjustment %d already approved by user %d at %s",
		e.AdjustmentID, e.ApprovedBy, e.ApprovedAt.Format(time.RFC3339))
}

func (e *AlreadyApprovedError) Unwrap() error {
	return ErrAlreadyApproved
}

// IsValidation reports a request-level failure: fix the input, do not retry.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInactive) ||
		errors.Is(err, ErrInvalidTonnage) ||
		errors.Is(err, ErrInvalidReason) ||
		errors.Is(err, ErrSelfApproval) ||
		errors.Is(err, ErrActorRequired) ||
		errors.Is(err, ErrDescriptionRequired)
}

// IsRetryable reports whether the same request may succeed if sent again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsConflict reports a business-rule rejection against the current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNoStockFound) ||
		errors.Is(err, ErrAlreadyApproved) ||
		errors.Is(err, ErrConcurrentModification)
}
