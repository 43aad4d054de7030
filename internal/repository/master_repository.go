package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coal-stock-service/internal/models"
)

// GetContractorByID returns a contractor, or nil if it does not exist.
func (r *stockRepository) GetContractorByID(ctx context.Context, id int64) (*models.Contractor, error) {
	var (
		c         models.Contractor
		createdAt timestamp
	)
	err := r.stmt(ctx, "get_contractor").QueryRowContext(ctx, id).Scan(
		&c.ID, &c.Code, &c.Name, &c.IsActive, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contractor %d: %w", id, err)
	}
	c.CreatedAt = createdAt.Time
	return &c, nil
}

// GetJettyByID returns a jetty, or nil if it does not exist.
func (r *stockRepository) GetJettyByID(ctx context.Context, id int64) (*models.Jetty, error) {
	var (
		j         models.Jetty
		createdAt timestamp
	)
	err := r.stmt(ctx, "get_jetty").QueryRowContext(ctx, id).Scan(
		&j.ID, &j.Name, &j.IsActive, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get jetty %d: %w", id, err)
	}
	j.CreatedAt = createdAt.Time
	return &j, nil
}

// GetUserByID returns a user, or nil if it does not exist.
func (r *stockRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var (
		u         models.User
		createdAt timestamp
	)
	err := r.stmt(ctx, "get_user").QueryRowContext(ctx, id).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Role, &u.IsActive, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	u.CreatedAt = createdAt.Time
	return &u, nil
}
