package services

import (
	"context"

	"coal-stock-service/internal/models"
)

// BalanceCache is the read cache of stock balances. Mutators write the
// committed row through; they never read from it. Set must not replace a
// cached balance of a higher version.
type BalanceCache interface {
	Get(ctx context.Context, contractorID, jettyID int64) (*models.StockBalance, bool)
	Set(ctx context.Context, stock *models.StockBalance)
}

type noCache struct{}

func (noCache) Get(context.Context, int64, int64) (*models.StockBalance, bool) {
	return nil, false
}

func (noCache) Set(context.Context, *models.StockBalance) {}

func cacheOrNoop(c BalanceCache) BalanceCache {
	if c == nil {
		return noCache{}
	}
	return c
}
