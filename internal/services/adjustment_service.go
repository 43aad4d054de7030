package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coal-stock-service/internal/audit"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"

	"go.uber.org/zap"
)

// AdjustmentService applies manual stock corrections and manages their
// journal.
type AdjustmentService interface {
	AdjustStock(ctx context.Context, req *models.AdjustmentRequest) (*models.AdjustmentResult, error)
	ApproveAdjustment(ctx context.Context, adjustmentID, approverID int64) (*models.StockAdjustment, error)
	GetAdjustment(ctx context.Context, adjustmentID int64) (*models.StockAdjustment, error)
	ListAdjustments(ctx context.Context, filter *models.AdjustmentFilter) ([]*models.AdjustmentWithDetails, error)
}

type adjustmentService struct {
	repo     repository.StockRepository
	ledger   *StockLedger
	cache    BalanceCache
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewAdjustmentService creates the adjustment service.
func NewAdjustmentService(repo repository.StockRepository, ledger *StockLedger, cache BalanceCache, recorder audit.Recorder, logger *zap.Logger) AdjustmentService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &adjustmentService{
		repo:     repo,
		ledger:   ledger,
		cache:    cacheOrNoop(cache),
		recorder: recorder,
		logger:   logger,
	}
}

// AdjustStock applies a signed correction to an existing stock row and
// writes the journal entry describing it. Both writes share one
// transaction: if the journal insert fails the balance is left untouched.
func (s *adjustmentService) AdjustStock(ctx context.Context, req *models.AdjustmentRequest) (*models.AdjustmentResult, error) {
	logger := s.logger.With(
		zap.String("operation", "adjust_stock"),
		zap.Int64("stock_id", req.StockID),
		zap.Int64("user_id", req.UserID),
		zap.String("reason", string(req.Reason)),
	)

	if !req.Reason.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidReason, req.Reason)
		logger.Info("Adjustment rejected", zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(req.ReasonDescription) == "" {
		logger.Info("Adjustment rejected", zap.Error(ErrDescriptionRequired))
		return nil, ErrDescriptionRequired
	}
	amount, err := normalizeAdjustment(req.AdjustmentAmount)
	if err != nil {
		logger.Info("Adjustment rejected", zap.Error(err))
		return nil, err
	}

	now := s.ledger.Now()

	var result *models.AdjustmentResult
	err = s.repo.WithTx(ctx, func(store repository.LedgerStore) error {
		stock, err := store.GetStockByID(ctx, req.StockID)
		if err != nil {
			return fmt.Errorf("failed to load stock: %w", err)
		}
		if stock == nil {
			return &NotFoundError{Entity: "stock", ID: req.StockID}
		}
		if _, err := requireActiveUser(ctx, store, req.UserID); err != nil {
			return err
		}

		updated, err := s.ledger.ApplyDelta(ctx, store, stock.ContractorID, stock.JettyID, amount, false)
		if err != nil {
			var insufficient *InsufficientStockError
			if errors.As(err, &insufficient) {
				insufficient.Adjustment = true
			}
			return err
		}

		adjustment := &models.StockAdjustment{
			StockID:           updated.ID,
			UserID:            req.UserID,
			PreviousTonnage:   updated.Tonnage.Sub(amount),
			NewTonnage:        updated.Tonnage,
			AdjustmentAmount:  amount,
			Reason:            req.Reason,
			ReasonDescription: req.ReasonDescription,
			ReferenceDocument: req.ReferenceDocument,
			Attachment:        req.Attachment,
			CreatedAt:         now,
		}
		if err := store.CreateAdjustment(ctx, adjustment); err != nil {
			return err
		}

		result = &models.AdjustmentResult{Adjustment: adjustment, Stock: updated}
		return nil
	})
	if err != nil {
		logFailure(logger, "Adjustment failed", err)
		return nil, err
	}

	s.cache.Set(ctx, result.Stock)
	s.recorder.Record(ctx, audit.Entry{
		UserID:     req.UserID,
		Action:     audit.ActionStockAdjust,
		EntityType: audit.EntityStockAdjustment,
		EntityID:   result.Adjustment.ID,
		Details: map[string]interface{}{
			"stock_id":          result.Stock.ID,
			"previous_tonnage":  models.FormatTonnage(result.Adjustment.PreviousTonnage),
			"new_tonnage":       models.FormatTonnage(result.Adjustment.NewTonnage),
			"adjustment_amount": models.FormatTonnage(amount),
			"reason":            string(req.Reason),
			"stock_version":     result.Stock.Version,
		},
		CreatedAt: now,
	})

	logger.Info("✅ Stock adjusted",
		zap.Int64("adjustment_id", result.Adjustment.ID),
		zap.String("previous_tonnage", models.FormatTonnage(result.Adjustment.PreviousTonnage)),
		zap.String("new_tonnage", models.FormatTonnage(result.Adjustment.NewTonnage)),
		zap.Int64("stock_version", result.Stock.Version),
	)
	return result, nil
}

// ApproveAdjustment sets the approver of a journal entry. An entry can be
// approved once, by someone other than its author. The balance is not
// touched.
func (s *adjustmentService) ApproveAdjustment(ctx context.Context, adjustmentID, approverID int64) (*models.StockAdjustment, error) {
	logger := s.logger.With(
		zap.String("operation", "approve_adjustment"),
		zap.Int64("adjustment_id", adjustmentID),
		zap.Int64("approver_id", approverID),
	)

	now := s.ledger.Now()

	var approved *models.StockAdjustment
	err := s.repo.WithTx(ctx, func(store repository.LedgerStore) error {
		if _, err := requireActiveUser(ctx, store, approverID); err != nil {
			return err
		}

		existing, err := store.GetAdjustmentByID(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if existing == nil {
			return &NotFoundError{Entity: "adjustment", ID: adjustmentID}
		}
		if existing.IsApproved() {
			return alreadyApproved(existing)
		}
		if existing.UserID == approverID {
			return ErrSelfApproval
		}

		approved, err = store.ApproveAdjustment(ctx, adjustmentID, approverID, now)
		if err != nil {
			return err
		}
		if approved == nil {
			// Approved by someone else between the read and the update.
			current, err := store.GetAdjustmentByID(ctx, adjustmentID)
			if err != nil {
				return err
			}
			if current == nil {
				return &NotFoundError{Entity: "adjustment", ID: adjustmentID}
			}
			return alreadyApproved(current)
		}
		return nil
	})
	if err != nil {
		logFailure(logger, "Approval failed", err)
		return nil, err
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     approverID,
		Action:     audit.ActionAdjustmentApprove,
		EntityType: audit.EntityStockAdjustment,
		EntityID:   adjustmentID,
		Details: map[string]interface{}{
			"stock_id": approved.StockID,
			"author":   approved.UserID,
		},
		CreatedAt: now,
	})

	logger.Info("✅ Adjustment approved")
	return approved, nil
}

func alreadyApproved(adj *models.StockAdjustment) error {
	e := &AlreadyApprovedError{AdjustmentID: adj.ID}
	if adj.ApprovedBy != nil {
		e.ApprovedBy = *adj.ApprovedBy
	}
	if adj.ApprovedAt != nil {
		e.ApprovedAt = *adj.ApprovedAt
	}
	return e
}

// GetAdjustment returns one journal entry.
func (s *adjustmentService) GetAdjustment(ctx context.Context, adjustmentID int64) (*models.StockAdjustment, error) {
	adj, err := s.repo.GetAdjustmentByID(ctx, adjustmentID)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, &NotFoundError{Entity: "adjustment", ID: adjustmentID}
	}
	return adj, nil
}

// ListAdjustments returns journal entries with display names.
func (s *adjustmentService) ListAdjustments(ctx context.Context, filter *models.AdjustmentFilter) ([]*models.AdjustmentWithDetails, error) {
	if filter != nil && filter.Reason != nil && !filter.Reason.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReason, *filter.Reason)
	}
	return s.repo.ListAdjustments(ctx, filter)
}
