package preference

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// PreferenceRepository defines data access for watchlist preferences
type PreferenceRepository interface {
	ListActive(ctx context.Context, userID string) ([]*models.Preference, error)
	Get(ctx context.Context, userID string, plu int) (*models.Preference, error)
	Upsert(ctx context.Context, pref *models.Preference) (*models.Preference, error)
	Update(ctx context.Context, userID string, watchID int64, updates *models.Preference) (*models.Preference, error)
	Remove(ctx context.Context, userID string, plu int) error
	BulkSetInterest(ctx context.Context, userID string, plus []int, interest models.InterestType) error
	InsertIfAbsent(ctx context.Context, pref *models.Preference) (bool, error)
	DeactivateAll(ctx context.Context, userID string) (int64, error)
}

// Repository implements PreferenceRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new preference repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListActive retrieves all active preferences for a user
func (r *Repository) ListActive(ctx context.Context, userID string) ([]*models.Preference, error) {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.ListActive")
	defer span.End()

	sb := preferenceStruct.SelectFrom(preferencesTable)
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("active", true),
	)
	sb.OrderBy("created_at").Desc()

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithField("user_id", userID).Debug("Listing active preferences")

	var rows []PreferenceRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list preferences")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list preferences")
	}

	return ToPreferences(rows), nil
}

// Get retrieves the active preference for a user and PLU
func (r *Repository) Get(ctx context.Context, userID string, plu int) (*models.Preference, error) {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.Get")
	defer span.End()

	sb := preferenceStruct.SelectFrom(preferencesTable)
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("plu", plu),
		sb.Equal("active", true),
	)

	sql, args := sb.Build()

	var row PreferenceRow
	err := r.db.GetContext(ctx, &row, sql, args...)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "preference not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get preference")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get preference")
	}

	return ToPreference(&row), nil
}

// Upsert inserts the preference or, when a row already exists for
// (user_id, plu), overwrites its marker and custom fields in place. The row
// is reactivated either way; the marker switch is a single atomic statement.
func (r *Repository) Upsert(ctx context.Context, pref *models.Preference) (*models.Preference, error) {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.Upsert")
	defer span.End()

	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = Now()
	}
	pref.Active = true

	sql, args := buildUpsert(pref)

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":  pref.UserID,
		"plu":      pref.PLU,
		"interest": pref.Interest,
	}).Debug("Upserting preference")

	_, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert preference")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to save preference")
	}

	return r.Get(ctx, pref.UserID, pref.PLU)
}

func buildUpsert(pref *models.Preference) (string, []any) {
	row := FromPreference(pref)
	ib := preferenceStruct.InsertInto(preferencesTable, row)
	ub := ib.OnConflict("user_id", "plu")
	ub.Set(
		ub.Assign("interest_type", database.Excluded("interest_type")),
		ub.Assign("custom_name", database.Excluded("custom_name")),
		ub.Assign("custom_price", database.Excluded("custom_price")),
		ub.Assign("custom_size_ml", database.Excluded("custom_size_ml")),
		ub.Assign("notify_email", database.Excluded("notify_email")),
		ub.Assign("notify_text", database.Excluded("notify_text")),
		ub.Assign("active", true),
	)

	return ib.Build()
}

// Update mutates custom fields and notify flags on an active preference owned
// by the user. Ownership is enforced in the statement itself.
func (r *Repository) Update(ctx context.Context, userID string, watchID int64, updates *models.Preference) (*models.Preference, error) {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(preferencesTable)

	assignments := []string{}
	if updates.CustomName != "" {
		assignments = append(assignments, ub.Assign("custom_name", updates.CustomName))
	}
	if updates.CustomPrice != 0 {
		assignments = append(assignments, ub.Assign("custom_price", updates.CustomPrice))
	}
	if updates.CustomSizeML != 0 {
		assignments = append(assignments, ub.Assign("custom_size_ml", updates.CustomSizeML))
	}
	assignments = append(assignments,
		ub.Assign("notify_email", updates.NotifyEmail),
		ub.Assign("notify_text", updates.NotifyText),
	)
	ub.Set(assignments...)
	ub.Where(
		ub.Equal("watch_id", watchID),
		ub.Equal("user_id", userID),
		ub.Equal("active", true),
	)

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":  userID,
		"watch_id": watchID,
	}).Debug("Updating preference")

	result, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update preference")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update preference")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "preference not found")
	}

	return r.getByWatchID(ctx, userID, watchID)
}

func (r *Repository) getByWatchID(ctx context.Context, userID string, watchID int64) (*models.Preference, error) {
	sb := preferenceStruct.SelectFrom(preferencesTable)
	sb.Where(
		sb.Equal("watch_id", watchID),
		sb.Equal("user_id", userID),
	)

	sql, args := sb.Build()

	var row PreferenceRow
	err := r.db.GetContext(ctx, &row, sql, args...)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "preference not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get preference")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get preference")
	}

	return ToPreference(&row), nil
}

// Remove soft deletes the active preference for a user and PLU. Removing a
// PLU that has no active preference returns not found.
func (r *Repository) Remove(ctx context.Context, userID string, plu int) error {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.Remove")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(preferencesTable)
	ub.Set(ub.Assign("active", false))
	ub.Where(
		ub.Equal("user_id", userID),
		ub.Equal("plu", plu),
		ub.Equal("active", true),
	)

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id": userID,
		"plu":     plu,
	}).Debug("Removing preference")

	result, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to remove preference")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to remove preference")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "preference not found")
	}

	return nil
}

// BulkSetInterest applies the same marker to every PLU in one transaction
func (r *Repository) BulkSetInterest(ctx context.Context, userID string, plus []int, interest models.InterestType) error {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.BulkSetInterest")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	now := Now()
	for _, plu := range plus {
		pref := &models.Preference{
			UserID:      userID,
			PLU:         plu,
			Interest:    interest,
			NotifyEmail: true,
			Active:      true,
			CreatedAt:   now,
		}

		sql, args := buildUpsert(pref)
		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithField("plu", plu).Error("Failed to upsert preference in bulk toggle")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to apply bulk toggle")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit bulk toggle")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":  userID,
		"count":    len(plus),
		"interest": interest,
	}).Debug("Applied bulk toggle")

	return nil
}

// InsertIfAbsent inserts the preference unless one already exists for
// (user_id, plu). Returns whether a row was inserted.
func (r *Repository) InsertIfAbsent(ctx context.Context, pref *models.Preference) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.InsertIfAbsent")
	defer span.End()

	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = Now()
	}
	pref.Active = true

	row := FromPreference(pref)
	ib := preferenceStruct.InsertInto(preferencesTable, row)
	ib.OnConflictDoNothing()

	sql, args := ib.Build()

	result, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to import preference")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to import preference")
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// DeactivateAll soft deletes every preference for a user and returns the
// number of rows affected
func (r *Repository) DeactivateAll(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "PreferenceRepository.DeactivateAll")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(preferencesTable)
	ub.Set(ub.Assign("active", false))
	ub.Where(
		ub.Equal("user_id", userID),
		ub.Equal("active", true),
	)

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithField("user_id", userID).Debug("Deactivating all preferences")

	result, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reset preferences")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reset preferences")
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}
