package repository

import (
	"context"
	"testing"
	"time"

	"coal-stock-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductions_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo, seed := newTestRepo(t)

	for i, day := range []int{1, 2, 3} {
		p := &models.Production{
			ContractorID: seed.ContractorID,
			JettyID:      seed.JettyID,
			OperatorID:   seed.OperatorID,
			TruckNumber:  "KT 8812 AB",
			CoalGrade:    "GAR 4200",
			Tonnage:      tons("25.5"),
			BalanceAfter: tons("25.5").Mul(decimal.NewFromInt(int64(i + 1))),
			ProducedAt:   time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC),
			CreatedAt:    time.Date(2024, 3, day, 10, 0, 1, 0, time.UTC),
		}
		require.NoError(t, repo.CreateProduction(ctx, p))
		assert.NotZero(t, p.ID)
	}

	all, err := repo.ListProductions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].ProducedAt.Day(), "newest first")
	assert.True(t, all[0].BalanceAfter.Equal(tons("76.5")))
	assert.Equal(t, "GAR 4200", all[0].CoalGrade)

	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	oneDay, err := repo.ListProductions(ctx, &models.MovementFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, oneDay, 1)
	assert.Equal(t, 2, oneDay[0].ProducedAt.Day())

	other, err := repo.ListProductions(ctx, &models.MovementFilter{JettyID: &seed.OtherJettyID})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBargings_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo, seed := newTestRepo(t)

	b := &models.Barging{
		ContractorID: seed.ContractorID,
		JettyID:      seed.JettyID,
		OperatorID:   seed.OperatorID,
		ShipName:     "TB Sinar Laut 7",
		VoyageNumber: "V-0921",
		Tonnage:      tons("600"),
		BalanceAfter: tons("400"),
		BargedAt:     t0,
		Notes:        "night shift",
		CreatedAt:    t0,
	}
	require.NoError(t, repo.CreateBarging(ctx, b))
	assert.NotZero(t, b.ID)

	list, err := repo.ListBargings(ctx, &models.MovementFilter{ContractorID: &seed.ContractorID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "TB Sinar Laut 7", list[0].ShipName)
	assert.Equal(t, "night shift", list[0].Notes)
	assert.True(t, list[0].Tonnage.Equal(tons("600")))
	assert.True(t, list[0].BargedAt.Equal(t0))
}
