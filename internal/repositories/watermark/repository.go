package watermark

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

// WatermarkRepository defines data access for notification watermarks
type WatermarkRepository interface {
	ListByUser(ctx context.Context, userID string) (map[int]*models.Watermark, error)
	Advance(ctx context.Context, userID string, plu int, notifiedAt time.Time) error
}

// Repository implements WatermarkRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new watermark repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByUser retrieves all watermarks for a user keyed by PLU
func (r *Repository) ListByUser(ctx context.Context, userID string) (map[int]*models.Watermark, error) {
	ctx, span := tracing.StartSpan(ctx, "WatermarkRepository.ListByUser")
	defer span.End()

	sb := watermarkStruct.SelectFrom(watermarksTable)
	sb.Where(sb.Equal("user_id", userID))

	sql, args := sb.Build()

	var rows []WatermarkRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list watermarks")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list watermarks")
	}

	marks := make(map[int]*models.Watermark, len(rows))
	for _, mark := range ToWatermarks(rows) {
		marks[mark.PLU] = mark
	}
	return marks, nil
}

// Advance moves the watermark for (user, plu) forward to notifiedAt. The
// first advance inserts a row with a count of one; later advances bump the
// count in place.
func (r *Repository) Advance(ctx context.Context, userID string, plu int, notifiedAt time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "WatermarkRepository.Advance")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(watermarksTable)
	ib.Cols("user_id", "plu", "last_notified", "notification_count")
	ib.Values(userID, plu, notifiedAt, 1)
	ub := ib.OnConflict("user_id", "plu")
	ub.Set(
		ub.Assign("last_notified", database.Excluded("last_notified")),
		ub.Assign("notification_count", database.Raw(watermarksTable+".notification_count + 1")),
	)

	sql, args := ib.Build()

	_, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
			"plu":     plu,
		}).Error("Failed to advance watermark")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to advance watermark")
	}

	return nil
}
