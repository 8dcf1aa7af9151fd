package store

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// StoreRepository defines read access to the store directory
type StoreRepository interface {
	List(ctx context.Context, region string) ([]*models.Store, error)
}

// Repository implements StoreRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new store repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all stores, optionally filtered by region
func (r *Repository) List(ctx context.Context, region string) ([]*models.Store, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreRepository.List")
	defer span.End()

	sb := storeStruct.SelectFrom(storesTable)
	if region != "" {
		sb.Where(sb.Equal("region", region))
	}
	sb.OrderBy("store_number").Asc()

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithField("region", region).Debug("Listing stores")

	var rows []StoreRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list stores")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list stores")
	}

	return ToStores(rows), nil
}
