package changefeed

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// ChangeFeedRepository defines read access to the inventory change log
type ChangeFeedRepository interface {
	ListSince(ctx context.Context, plu int, since time.Time, limit int) ([]*models.ChangeEvent, error)
}

// Repository implements ChangeFeedRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new change feed repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListSince retrieves up to limit change events for a PLU strictly after
// since, most recent first
func (r *Repository) ListSince(ctx context.Context, plu int, since time.Time, limit int) ([]*models.ChangeEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "ChangeFeedRepository.ListSince")
	defer span.End()

	sb := changeStruct.SelectFrom(changesTable)
	sb.Where(
		sb.Equal("plu", plu),
		sb.GreaterThan("check_time", since),
	)
	sb.OrderBy("check_time").Desc()
	sb.Limit(limit)

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"plu":   plu,
		"since": since,
		"limit": limit,
	}).Debug("Listing change events")

	var rows []ChangeRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list change events")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list change events")
	}

	return ToChangeEvents(rows), nil
}
