package services

import (
	"context"
	"fmt"

	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"

	"go.uber.org/zap"
)

// StockService defines the read-only stock queries
type StockService interface {
	// Balances
	GetStock(ctx context.Context, contractorID, jettyID int64) (*models.StockBalance, error)
	ListStock(ctx context.Context, filter *models.StockFilter) ([]*models.StockWithDetails, error)

	// Movement history
	ListProductions(ctx context.Context, filter *models.MovementFilter) ([]*models.Production, error)
	ListBargings(ctx context.Context, filter *models.MovementFilter) ([]*models.Barging, error)
}

type stockService struct {
	repo   repository.StockRepository
	cache  BalanceCache
	logger *zap.Logger
}

// NewStockService creates the query service
func NewStockService(repo repository.StockRepository, cache BalanceCache, logger *zap.Logger) StockService {
	return &stockService{
		repo:   repo,
		cache:  cacheOrNoop(cache),
		logger: logger,
	}
}

// GetStock returns the balance of a pair, from cache when possible.
func (s *stockService) GetStock(ctx context.Context, contractorID, jettyID int64) (*models.StockBalance, error) {
	if stock, ok := s.cache.Get(ctx, contractorID, jettyID); ok {
		return stock, nil
	}

	stock, err := s.repo.FindStock(ctx, contractorID, jettyID)
	if err != nil {
		s.logger.Error("❌ Error getting stock",
			zap.Int64("contractor_id", contractorID),
			zap.Int64("jetty_id", jettyID),
			zap.Error(err))
		return nil, fmt.Errorf("error getting stock: %w", err)
	}
	if stock == nil {
		return nil, &NoStockFoundError{ContractorID: contractorID, JettyID: jettyID}
	}

	s.cache.Set(ctx, stock)
	return stock, nil
}

func (s *stockService) ListStock(ctx context.Context, filter *models.StockFilter) ([]*models.StockWithDetails, error) {
	stocks, err := s.repo.ListStock(ctx, filter)
	if err != nil {
		s.logger.Error("❌ Error listing stock", zap.Error(err))
		return nil, fmt.Errorf("error listing stock: %w", err)
	}
	return stocks, nil
}

func (s *stockService) ListProductions(ctx context.Context, filter *models.MovementFilter) ([]*models.Production, error) {
	productions, err := s.repo.ListProductions(ctx, filter)
	if err != nil {
		s.logger.Error("❌ Error listing productions", zap.Error(err))
		return nil, fmt.Errorf("error listing productions: %w", err)
	}
	return productions, nil
}

func (s *stockService) ListBargings(ctx context.Context, filter *models.MovementFilter) ([]*models.Barging, error) {
	bargings, err := s.repo.ListBargings(ctx, filter)
	if err != nil {
		s.logger.Error("❌ Error listing bargings", zap.Error(err))
		return nil, fmt.Errorf("error listing bargings: %w", err)
	}
	return bargings, nil
}
