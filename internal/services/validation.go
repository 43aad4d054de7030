package services

import (
	"context"
	"fmt"

	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"

	"github.com/shopspring/decimal"
)

// normalizeTonnage rounds an unsigned movement amount to the stored scale
// and checks that it is positive and fits the column.
func normalizeTonnage(value decimal.Decimal) (decimal.Decimal, error) {
	rounded := models.RoundTonnage(value)
	if !rounded.IsPositive() {
		return decimal.Zero, &InvalidTonnageError{Field: "tonnage", Value: rounded}
	}
	if !models.TonnageFits(rounded) {
		return decimal.Zero, &InvalidTonnageError{Field: "tonnage", Value: rounded}
	}
	return rounded, nil
}

// normalizeAdjustment does the same for a signed adjustment amount.
func normalizeAdjustment(value decimal.Decimal) (decimal.Decimal, error) {
	rounded := models.RoundTonnage(value)
	if rounded.IsZero() || !models.TonnageFits(rounded) {
		return decimal.Zero, &InvalidTonnageError{Field: "adjustment amount", Value: rounded}
	}
	return rounded, nil
}

func requireActiveContractor(ctx context.Context, store repository.LedgerStore, id int64) (*models.Contractor, error) {
	contractor, err := store.GetContractorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contractor: %w", err)
	}
	if contractor == nil {
		return nil, &NotFoundError{Entity: "contractor", ID: id}
	}
	if !contractor.IsActive {
		return nil, &InactiveError{Entity: "contractor", ID: id, Name: contractor.Name}
	}
	return contractor, nil
}

func requireActiveJetty(ctx context.Context, store repository.LedgerStore, id int64) (*models.Jetty, error) {
	jetty, err := store.GetJettyByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load jetty: %w", err)
	}
	if jetty == nil {
		return nil, &NotFoundError{Entity: "jetty", ID: id}
	}
	if !jetty.IsActive {
		return nil, &InactiveError{Entity: "jetty", ID: id, Name: jetty.Name}
	}
	return jetty, nil
}

// requireActiveUser checks the acting operator, supervisor or approver.
func requireActiveUser(ctx context.Context, store repository.LedgerStore, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, ErrActorRequired
	}
	user, err := store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Entity: "user", ID: id}
	}
	if !user.IsActive {
		return nil, &InactiveError{Entity: "user", ID: id, Name: user.Username}
	}
	return user, nil
}
