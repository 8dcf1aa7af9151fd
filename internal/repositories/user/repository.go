package user

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// UserRepository defines read access to user accounts for the notifier
type UserRepository interface {
	ListNotifiable(ctx context.Context, frequency string) ([]*models.User, error)
}

// Repository implements UserRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new user repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListNotifiable retrieves active users who opted into email notification at
// the given frequency
func (r *Repository) ListNotifiable(ctx context.Context, frequency string) ([]*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.ListNotifiable")
	defer span.End()

	sb := userStruct.SelectFrom(usersTable)
	sb.Where(
		sb.Equal("notify_email", true),
		sb.Equal("notify_frequency", frequency),
		sb.Equal("status", "active"),
	)

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithField("frequency", frequency).Debug("Listing notifiable users")

	var rows []UserRow
	err := r.db.SelectContext(ctx, &rows, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list notifiable users")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list notifiable users")
	}

	return ToUsers(rows), nil
}
