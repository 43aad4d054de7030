package services

import (
	"context"

	"coal-stock-service/internal/audit"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"

	"go.uber.org/zap"
)

// BargingService records coal loaded out of a jetty stockpile.
type BargingService interface {
	RecordBarging(ctx context.Context, req *models.BargingRequest) (*models.BargingResult, error)
}

type bargingService struct {
	repo     repository.StockRepository
	ledger   *StockLedger
	cache    BalanceCache
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewBargingService creates the outflow service.
func NewBargingService(repo repository.StockRepository, ledger *StockLedger, cache BalanceCache, recorder audit.Recorder, logger *zap.Logger) BargingService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &bargingService{
		repo:     repo,
		ledger:   ledger,
		cache:    cacheOrNoop(cache),
		recorder: recorder,
		logger:   logger,
	}
}

// RecordBarging subtracts the tonnage from an existing balance and stores
// the barging event in the same transaction. A pair without a stock row
// fails with NoStockFoundError; a short balance with InsufficientStockError.
func (s *bargingService) RecordBarging(ctx context.Context, req *models.BargingRequest) (*models.BargingResult, error) {
	logger := s.logger.With(
		zap.String("operation", "record_barging"),
		zap.Int64("contractor_id", req.ContractorID),
		zap.Int64("jetty_id", req.JettyID),
		zap.Int64("operator_id", req.OperatorID),
		zap.String("ship_name", req.ShipName),
	)

	tonnage, err := normalizeTonnage(req.Tonnage)
	if err != nil {
		logger.Info("Barging rejected", zap.Error(err))
		return nil, err
	}

	now := s.ledger.Now()
	bargedAt := now
	if req.BargedAt != nil && !req.BargedAt.IsZero() {
		bargedAt = req.BargedAt.UTC()
	}

	var result *models.BargingResult
	err = s.repo.WithTx(ctx, func(store repository.LedgerStore) error {
		if _, err := requireActiveContractor(ctx, store, req.ContractorID); err != nil {
			return err
		}
		if _, err := requireActiveJetty(ctx, store, req.JettyID); err != nil {
			return err
		}
		if _, err := requireActiveUser(ctx, store, req.OperatorID); err != nil {
			return err
		}

		stock, err := s.ledger.ApplyDelta(ctx, store, req.ContractorID, req.JettyID, tonnage.Neg(), false)
		if err != nil {
			return err
		}

		barging := &models.Barging{
			ContractorID: req.ContractorID,
			JettyID:      req.JettyID,
			OperatorID:   req.OperatorID,
			ShipName:     req.ShipName,
			VoyageNumber: req.VoyageNumber,
			Tonnage:      tonnage,
			BalanceAfter: stock.Tonnage,
			BargedAt:     bargedAt,
			Notes:        req.Notes,
			CreatedAt:    now,
		}
		if err := store.CreateBarging(ctx, barging); err != nil {
			return err
		}

		result = &models.BargingResult{Barging: barging, Stock: stock}
		return nil
	})
	if err != nil {
		logFailure(logger, "Barging failed", err)
		return nil, err
	}

	s.cache.Set(ctx, result.Stock)
	s.recorder.Record(ctx, audit.Entry{
		UserID:     req.OperatorID,
		Action:     audit.ActionBargingCreate,
		EntityType: audit.EntityBarging,
		EntityID:   result.Barging.ID,
		Details: map[string]interface{}{
			"contractor_id": req.ContractorID,
			"jetty_id":      req.JettyID,
			"ship_name":     req.ShipName,
			"tonnage":       models.FormatTonnage(tonnage),
			"balance_after": models.FormatTonnage(result.Stock.Tonnage),
			"stock_version": result.Stock.Version,
		},
		CreatedAt: now,
	})

	logger.Info("✅ Barging recorded",
		zap.Int64("barging_id", result.Barging.ID),
		zap.String("tonnage", models.FormatTonnage(tonnage)),
		zap.String("balance_after", models.FormatTonnage(result.Stock.Tonnage)),
		zap.Int64("stock_version", result.Stock.Version),
	)
	return result, nil
}
