package repository

import "errors"

var (
	// ErrDuplicateKey is returned by CreateStock when a row for the
	// (contractor, jetty) pair already exists.
	ErrDuplicateKey = errors.New("stock row already exists for contractor and jetty")

	// ErrVersionConflict is returned by UpdateStockVersioned when the row is
	// no longer at the expected version. Nothing was written.
	ErrVersionConflict = errors.New("stock version conflict")
)
