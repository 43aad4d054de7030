package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coal-stock-service/internal/audit"
	"coal-stock-service/internal/database"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/repository"
	"coal-stock-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func tons(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture wires the services against a fresh SQLite database.
type fixture struct {
	db       *database.SQLDB
	repo     repository.StockRepository
	seed     testutil.Seed
	ledger   *StockLedger
	recorder *memRecorder
	cache    *spyCache

	production  ProductionService
	barging     BargingService
	adjustments AdjustmentService
	stock       StockService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	opts LedgerOptions
	wrap func(repository.LedgerStore) repository.LedgerStore
}

func withMaxAttempts(n int) fixtureOption {
	return func(c *fixtureConfig) { c.opts.MaxAttempts = n }
}

// withStore decorates the store handed to every transaction.
func withStore(wrap func(repository.LedgerStore) repository.LedgerStore) fixtureOption {
	return func(c *fixtureConfig) { c.wrap = wrap }
}

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{opts: LedgerOptions{MaxAttempts: 3}}
	for _, o := range options {
		o(&cfg)
	}

	db := testutil.NewDB(t)
	seed := testutil.SeedMaster(t, db)

	base, err := repository.NewStockRepository(db.DB)
	require.NoError(t, err)
	t.Cleanup(func() { base.Close() })

	var repo repository.StockRepository = base
	if cfg.wrap != nil {
		repo = &decoratedRepo{StockRepository: base, wrap: cfg.wrap}
	}

	logger := zaptest.NewLogger(t)
	ledger := NewStockLedger(cfg.opts, logger)
	recorder := &memRecorder{}
	cache := newSpyCache()

	return &fixture{
		db:          db,
		repo:        base,
		seed:        seed,
		ledger:      ledger,
		recorder:    recorder,
		cache:       cache,
		production:  NewProductionService(repo, ledger, cache, recorder, logger),
		barging:     NewBargingService(repo, ledger, cache, recorder, logger),
		adjustments: NewAdjustmentService(repo, ledger, cache, recorder, logger),
		stock:       NewStockService(repo, cache, logger),
	}
}

func (f *fixture) produce(t *testing.T, amount string) *models.ProductionResult {
	t.Helper()
	res, err := f.production.RecordProduction(context.Background(), &models.ProductionRequest{
		ContractorID: f.seed.ContractorID,
		JettyID:      f.seed.JettyID,
		TruckNumber:  "KT 1234 XY",
		Tonnage:      tons(amount),
		OperatorID:   f.seed.OperatorID,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) barge(amount string) (*models.BargingResult, error) {
	return f.barging.RecordBarging(context.Background(), &models.BargingRequest{
		ContractorID: f.seed.ContractorID,
		JettyID:      f.seed.JettyID,
		ShipName:     "MV Mahakam",
		Tonnage:      tons(amount),
		OperatorID:   f.seed.OperatorID,
	})
}

// current reads the ledger row straight from the database.
func (f *fixture) current(t *testing.T) *models.StockBalance {
	t.Helper()
	stock, err := f.repo.FindStock(context.Background(), f.seed.ContractorID, f.seed.JettyID)
	require.NoError(t, err)
	return stock
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// decoratedRepo hands a wrapped store to every transaction.
type decoratedRepo struct {
	repository.StockRepository
	wrap func(repository.LedgerStore) repository.LedgerStore
}

func (r *decoratedRepo) WithTx(ctx context.Context, fn func(repository.LedgerStore) error) error {
	return r.StockRepository.WithTx(ctx, func(store repository.LedgerStore) error {
		return fn(r.wrap(store))
	})
}

var errDiskFull = errors.New("disk full")

// failingJournal fails every journal and event insert.
type failingJournal struct {
	repository.LedgerStore
}

func (failingJournal) CreateAdjustment(context.Context, *models.StockAdjustment) error {
	return errDiskFull
}

func (failingJournal) CreateProduction(context.Context, *models.Production) error {
	return errDiskFull
}

func (failingJournal) CreateBarging(context.Context, *models.Barging) error {
	return errDiskFull
}

// interloper commits a competing write right before the next n versioned
// updates, so those updates run against a stale version.
type interloper struct {
	repository.LedgerStore
	mu        *sync.Mutex
	remaining *int
	bump      decimal.Decimal
}

func (s interloper) UpdateStockVersioned(ctx context.Context, id, expectedVersion int64, tonnage decimal.Decimal, at time.Time) (*models.StockBalance, error) {
	s.mu.Lock()
	interfere := *s.remaining > 0
	if interfere {
		*s.remaining--
	}
	s.mu.Unlock()

	if interfere {
		current, err := s.LedgerStore.GetStockByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.LedgerStore.UpdateStockVersioned(ctx, id, current.Version, current.Tonnage.Add(s.bump), at); err != nil {
			return nil, err
		}
	}
	return s.LedgerStore.UpdateStockVersioned(ctx, id, expectedVersion, tonnage, at)
}

// alwaysConflict loses every version check.
type alwaysConflict struct {
	repository.LedgerStore
}

func (alwaysConflict) UpdateStockVersioned(context.Context, int64, int64, decimal.Decimal, time.Time) (*models.StockBalance, error) {
	return nil, repository.ErrVersionConflict
}

// racingCreator lets a competing intake create the row first.
type racingCreator struct {
	repository.LedgerStore
	competing decimal.Decimal
}

func (s racingCreator) CreateStock(ctx context.Context, contractorID, jettyID int64, tonnage decimal.Decimal, at time.Time) (*models.StockBalance, error) {
	if _, err := s.LedgerStore.CreateStock(ctx, contractorID, jettyID, s.competing, at); err != nil {
		return nil, err
	}
	return s.LedgerStore.CreateStock(ctx, contractorID, jettyID, tonnage, at)
}

type memRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memRecorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// spyCache is an in-memory BalanceCache that counts writes.
type spyCache struct {
	mu     sync.Mutex
	items  map[[2]int64]models.StockBalance
	writes int
}

func newSpyCache() *spyCache {
	return &spyCache{items: make(map[[2]int64]models.StockBalance)}
}

func (c *spyCache) Get(_ context.Context, contractorID, jettyID int64) (*models.StockBalance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stock, ok := c.items[[2]int64{contractorID, jettyID}]
	if !ok {
		return nil, false
	}
	return &stock, true
}

func (c *spyCache) Set(_ context.Context, stock *models.StockBalance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	key := [2]int64{stock.ContractorID, stock.JettyID}
	if cached, ok := c.items[key]; ok && cached.Version > stock.Version {
		return
	}
	c.items[key] = *stock
}

func (c *spyCache) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}
