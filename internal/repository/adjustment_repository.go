package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coal-stock-service/internal/models"
)

const adjustmentColumns = `id, stock_id, user_id, previous_tonnage, new_tonnage, adjustment_amount,
	reason, reason_description, reference_document, attachment, approved_by, approved_at, created_at`

func scanAdjustment(row rowScanner, extra ...interface{}) (*models.StockAdjustment, error) {
	var (
		adj        models.StockAdjustment
		reference  sql.NullString
		attachment sql.NullString
		approvedBy sql.NullInt64
		approvedAt timestamp
		createdAt  timestamp
	)
	dest := []interface{}{
		&adj.ID, &adj.StockID, &adj.UserID,
		&adj.PreviousTonnage, &adj.NewTonnage, &adj.AdjustmentAmount,
		&adj.Reason, &adj.ReasonDescription, &reference, &attachment,
		&approvedBy, &approvedAt, &createdAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	adj.ReferenceDocument = nullStringPtr(reference)
	adj.Attachment = nullStringPtr(attachment)
	adj.ApprovedBy = nullInt64Ptr(approvedBy)
	adj.ApprovedAt = approvedAt.ptr()
	adj.CreatedAt = createdAt.Time
	return &adj, nil
}

// CreateAdjustment appends a journal row and sets adj.ID. Approval fields
// are ignored; new rows always start unapproved.
func (r *stockRepository) CreateAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	err := r.stmt(ctx, "create_adjustment").QueryRowContext(ctx,
		adj.StockID,
		adj.UserID,
		adj.PreviousTonnage,
		adj.NewTonnage,
		adj.AdjustmentAmount,
		string(adj.Reason),
		adj.ReasonDescription,
		adj.ReferenceDocument,
		adj.Attachment,
		adj.CreatedAt,
	).Scan(&adj.ID)
	if err != nil {
		return fmt.Errorf("failed to create adjustment: %w", err)
	}

	adj.ApprovedBy = nil
	adj.ApprovedAt = nil
	return nil
}

// GetAdjustmentByID returns a journal row, or nil if it does not exist.
func (r *stockRepository) GetAdjustmentByID(ctx context.Context, id int64) (*models.StockAdjustment, error) {
	adj, err := scanAdjustment(r.stmt(ctx, "get_adjustment").QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get adjustment %d: %w", id, err)
	}
	return adj, nil
}

// ApproveAdjustment records the approver on a pending row. It returns nil
// when the row is missing or was already approved; the caller tells the two
// apart with GetAdjustmentByID.
func (r *stockRepository) ApproveAdjustment(ctx context.Context, id, approverID int64, at time.Time) (*models.StockAdjustment, error) {
	adj, err := scanAdjustment(r.stmt(ctx, "approve_adjustment").QueryRowContext(ctx, approverID, at, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve adjustment %d: %w", id, err)
	}
	return adj, nil
}

// ListAdjustments returns journal rows newest first, with the names of the
// stock owner, the author and the approver joined in.
func (r *stockRepository) ListAdjustments(ctx context.Context, filter *models.AdjustmentFilter) ([]*models.AdjustmentWithDetails, error) {
	if filter == nil {
		filter = &models.AdjustmentFilter{}
	}

	var where whereBuilder
	if filter.StockID != nil {
		where.add("a.stock_id = $%d", *filter.StockID)
	}
	if filter.ContractorID != nil {
		where.add("s.contractor_id = $%d", *filter.ContractorID)
	}
	if filter.JettyID != nil {
		where.add("s.jetty_id = $%d", *filter.JettyID)
	}
	if filter.Reason != nil {
		where.add("a.reason = $%d", string(*filter.Reason))
	}
	if filter.PendingOnly {
		where.addRaw("a.approved_by IS NULL")
	}

	conditions := where.String()
	limit := where.placeholder(pageLimit(filter.Limit))
	offset := where.placeholder(pageOffset(filter.Offset))

	query := `
		SELECT a.id, a.stock_id, a.user_id, a.previous_tonnage, a.new_tonnage, a.adjustment_amount,
		       a.reason, a.reason_description, a.reference_document, a.attachment,
		       a.approved_by, a.approved_at, a.created_at,
		       s.contractor_id, s.jetty_id, c.name, j.name,
		       COALESCE(NULLIF(u.full_name, ''), u.username, ''),
		       COALESCE(NULLIF(ap.full_name, ''), ap.username, '')
		FROM stock_adjustments a
		JOIN stock_balances s ON s.id = a.stock_id
		JOIN contractors c ON c.id = s.contractor_id
		JOIN jetties j ON j.id = s.jetty_id
		LEFT JOIN users u ON u.id = a.user_id
		LEFT JOIN users ap ON ap.id = a.approved_by` + conditions + `
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.q().QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []*models.AdjustmentWithDetails
	for rows.Next() {
		var item models.AdjustmentWithDetails
		adj, err := scanAdjustment(rows,
			&item.ContractorID, &item.JettyID, &item.ContractorName, &item.JettyName,
			&item.UserName, &item.ApproverName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		item.StockAdjustment = *adj
		adjustments = append(adjustments, &item)
	}

	return adjustments, rows.Err()
}
