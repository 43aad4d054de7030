package repository

import (
	"context"
	"fmt"

	"coal-stock-service/internal/models"
)

// CreateProduction appends a production event and sets p.ID.
func (r *stockRepository) CreateProduction(ctx context.Context, p *models.Production) error {
	err := r.stmt(ctx, "create_production").QueryRowContext(ctx,
		p.ContractorID,
		p.JettyID,
		p.OperatorID,
		p.TruckNumber,
		p.CoalGrade,
		p.Tonnage,
		p.BalanceAfter,
		p.ProducedAt,
		p.Notes,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create production: %w", err)
	}
	return nil
}

// CreateBarging appends a barging event and sets b.ID.
func (r *stockRepository) CreateBarging(ctx context.Context, b *models.Barging) error {
	err := r.stmt(ctx, "create_barging").QueryRowContext(ctx,
		b.ContractorID,
		b.JettyID,
		b.OperatorID,
		b.ShipName,
		b.VoyageNumber,
		b.Tonnage,
		b.BalanceAfter,
		b.BargedAt,
		b.Notes,
		b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to create barging: %w", err)
	}
	return nil
}

// movementWhere builds the shared filter for production and barging lists.
// dateColumn is the event time column of the table.
func movementWhere(filter *models.MovementFilter, dateColumn string) whereBuilder {
	var where whereBuilder
	if filter.ContractorID != nil {
		where.add("contractor_id = $%d", *filter.ContractorID)
	}
	if filter.JettyID != nil {
		where.add("jetty_id = $%d", *filter.JettyID)
	}
	if filter.From != nil {
		where.add(dateColumn+" >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		// To is a calendar day and is inclusive.
		where.add(dateColumn+" < $%d", filter.To.UTC().AddDate(0, 0, 1))
	}
	return where
}

// ListProductions returns production events newest first.
func (r *stockRepository) ListProductions(ctx context.Context, filter *models.MovementFilter) ([]*models.Production, error) {
	if filter == nil {
		filter = &models.MovementFilter{}
	}

	where := movementWhere(filter, "produced_at")
	conditions := where.String()
	limit := where.placeholder(pageLimit(filter.Limit))
	offset := where.placeholder(pageOffset(filter.Offset))

	query := `
		SELECT id, contractor_id, jetty_id, operator_id, truck_number, coal_grade,
		       tonnage, balance_after, produced_at, notes, created_at
		FROM productions` + conditions + `
		ORDER BY produced_at DESC, id DESC
		LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.q().QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list productions: %w", err)
	}
	defer rows.Close()

	var productions []*models.Production
	for rows.Next() {
		var (
			p          models.Production
			producedAt timestamp
			createdAt  timestamp
		)
		err := rows.Scan(
			&p.ID, &p.ContractorID, &p.JettyID, &p.OperatorID, &p.TruckNumber, &p.CoalGrade,
			&p.Tonnage, &p.BalanceAfter, &producedAt, &p.Notes, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan production: %w", err)
		}
		p.ProducedAt = producedAt.Time
		p.CreatedAt = createdAt.Time
		productions = append(productions, &p)
	}

	return productions, rows.Err()
}

// ListBargings returns barging events newest first.
func (r *stockRepository) ListBargings(ctx context.Context, filter *models.MovementFilter) ([]*models.Barging, error) {
	if filter == nil {
		filter = &models.MovementFilter{}
	}

	where := movementWhere(filter, "barged_at")
	conditions := where.String()
	limit := where.placeholder(pageLimit(filter.Limit))
	offset := where.placeholder(pageOffset(filter.Offset))

	query := `
		SELECT id, contractor_id, jetty_id, operator_id, ship_name, voyage_number,
		       tonnage, balance_after, barged_at, notes, created_at
		FROM bargings` + conditions + `
		ORDER BY barged_at DESC, id DESC
		LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.q().QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bargings: %w", err)
	}
	defer rows.Close()

	var bargings []*models.Barging
	for rows.Next() {
		var (
			b         models.Barging
			bargedAt  timestamp
			createdAt timestamp
		)
		err := rows.Scan(
			&b.ID, &b.ContractorID, &b.JettyID, &b.OperatorID, &b.ShipName, &b.VoyageNumber,
			&b.Tonnage, &b.BalanceAfter, &bargedAt, &b.Notes, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan barging: %w", err)
		}
		b.BargedAt = bargedAt.Time
		b.CreatedAt = createdAt.Time
		bargings = append(bargings, &b)
	}

	return bargings, rows.Err()
}
