package services

import (
	"context"

	"coal-stock-service/internal/audit"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"

	"go.uber.org/zap"
)

// ProductionService records coal intake.
type ProductionService interface {
	RecordProduction(ctx context.Context, req *models.ProductionRequest) (*models.ProductionResult, error)
}

type productionService struct {
	repo     repository.StockRepository
	ledger   *StockLedger
	cache    BalanceCache
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewProductionService creates the intake service.
func NewProductionService(repo repository.StockRepository, ledger *StockLedger, cache BalanceCache, recorder audit.Recorder, logger *zap.Logger) ProductionService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &productionService{
		repo:     repo,
		ledger:   ledger,
		cache:    cacheOrNoop(cache),
		recorder: recorder,
		logger:   logger,
	}
}

// RecordProduction validates the contractor, jetty and operator, adds the
// tonnage to the pair's balance (creating the row on first intake) and
// stores the production event in the same transaction.
func (s *productionService) RecordProduction(ctx context.Context, req *models.ProductionRequest) (*models.ProductionResult, error) {
	logger := s.logger.With(
		zap.String("operation", "record_production"),
		zap.Int64("contractor_id", req.ContractorID),
		zap.Int64("jetty_id", req.JettyID),
		zap.Int64("operator_id", req.OperatorID),
		zap.String("truck_number", req.TruckNumber),
	)

	tonnage, err := normalizeTonnage(req.Tonnage)
	if err != nil {
		logger.Info("Production rejected", zap.Error(err))
		return nil, err
	}

	now := s.ledger.Now()
	producedAt := now
	if req.ProducedAt != nil && !req.ProducedAt.IsZero() {
		producedAt = req.ProducedAt.UTC()
	}

	var result *models.ProductionResult
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

		stock, err := s.ledger.ApplyDelta(ctx, store, req.ContractorID, req.JettyID, tonnage, true)
		if err != nil {
			return err
		}

		production := &models.Production{
			ContractorID: req.ContractorID,
			JettyID:      req.JettyID,
			OperatorID:   req.OperatorID,
			TruckNumber:  req.TruckNumber,
			CoalGrade:    req.CoalGrade,
			Tonnage:      tonnage,
			BalanceAfter: stock.Tonnage,
			ProducedAt:   producedAt,
			Notes:        req.Notes,
			CreatedAt:    now,
		}
		if err := store.CreateProduction(ctx, production); err != nil {
			return err
		}

		result = &models.ProductionResult{Production: production, Stock: stock}
		return nil
	})
	if err != nil {
		logFailure(logger, "Production failed", err)
		return nil, err
	}

	s.cache.Set(ctx, result.Stock)
	s.recorder.Record(ctx, audit.Entry{
		UserID:     req.OperatorID,
		Action:     audit.ActionProductionCreate,
		EntityType: audit.EntityProduction,
		EntityID:   result.Production.ID,
		Details: map[string]interface{}{
			"contractor_id": req.ContractorID,
			"jetty_id":      req.JettyID,
			"truck_number":  req.TruckNumber,
			"tonnage":       models.FormatTonnage(tonnage),
			"balance_after": models.FormatTonnage(result.Stock.Tonnage),
			"stock_version": result.Stock.Version,
		},
		CreatedAt: now,
	})

	logger.Info("✅ Production recorded",
		zap.Int64("production_id", result.Production.ID),
		zap.String("tonnage", models.FormatTonnage(tonnage)),
		zap.String("balance_after", models.FormatTonnage(result.Stock.Tonnage)),
		zap.Int64("stock_version", result.Stock.Version),
	)
	return result, nil
}

// logFailure logs expected business rejections at info and everything else
// at error.
func logFailure(logger *zap.Logger, msg string, err error) {
	switch {
	case IsValidation(err), IsConflict(err):
		logger.Info(msg, zap.Error(err))
	default:
		logger.Error("❌ "+msg, zap.Error(err))
	}
}
