package catalog

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// CatalogRepository defines the read-only catalog access used by the
// watchlist resolver and search.
type CatalogRepository interface {
	GetByPLU(ctx context.Context, plu int) (*models.Product, error)
	ListByTiers(ctx context.Context, tiers []string) ([]*models.Product, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Product, error)
	ExistingPLUs(ctx context.Context, plus []int) (map[int]bool, error)
}

// Repository implements CatalogRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new catalog repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByPLU retrieves a catalog item by PLU
func (r *Repository) GetByPLU(ctx context.Context, plu int) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.GetByPLU")
	defer span.End()

	sb := productStruct.SelectFrom(catalogTable)
	sb.Where(sb.Equal("plu", plu))

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithField("plu", plu).Debug("Getting catalog item by PLU")

	var row ProductRow
	err := r.db.GetContext(ctx, &row, sql, args...)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "product not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get catalog item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog item")
	}

	return ToProduct(&row), nil
}

// ListByTiers retrieves every catalog item whose listing tier is in tiers
func (r *Repository) ListByTiers(ctx context.Context, tiers []string) ([]*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ListByTiers")
	defer span.End()

	sb := productStruct.SelectFrom(catalogTable)
	sb.Where(sb.In("listing_tier", sqlbuilder.List(tiers)))
	sb.OrderBy("brand_name").Asc()

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithField("tiers", tiers).Debug("Listing catalog items by tier")

	var rows []ProductRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list catalog items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list catalog items")
	}

	return ToProducts(rows), nil
}

// Search finds catalog items whose brand name or PLU contains the query
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.Search")
	defer span.End()

	pattern := "%" + query + "%"

	sb := productStruct.SelectFrom(catalogTable)
	sb.Where(sb.Or(
		sb.ILike("brand_name", pattern),
		sb.Like("CAST(plu AS TEXT)", pattern),
	))
	sb.OrderBy("brand_name").Asc()
	sb.Limit(limit)

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"query": query,
		"limit": limit,
	}).Debug("Searching catalog")

	var rows []ProductRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search catalog")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search catalog")
	}

	return ToProducts(rows), nil
}

// ExistingPLUs reports which of the given PLUs exist in the catalog
func (r *Repository) ExistingPLUs(ctx context.Context, plus []int) (map[int]bool, error) {
	ctx, span := tracing.StartSpan(ctx, "CatalogRepository.ExistingPLUs")
	defer span.End()

	existing := make(map[int]bool, len(plus))
	if len(plus) == 0 {
		return existing, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("plu").From(catalogTable)
	sb.Where(sb.In("plu", sqlbuilder.List(plus)))

	sql, args := sb.Build()

	var found []int
	err := r.db.SelectContext(ctx, &found, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check catalog PLUs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check catalog PLUs")
	}

	for _, plu := range found {
		existing[plu] = true
	}
	return existing, nil
}
