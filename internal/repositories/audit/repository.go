package audit

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

// AuditRepository records watchlist mutations
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// Repository implements AuditRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit entry. Audit failures are logged but never fail
// the mutation they describe.
func (r *Repository) Append(ctx context.Context, entry *models.AuditEntry) error {
	ctx, span := tracing.StartSpan(ctx, "AuditRepository.Append")
	defer span.End()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = Now()
	}

	row := FromAuditEntry(entry)
	ib := auditStruct.InsertInto(auditTable, row)

	sql, args := ib.Build()

	_, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": entry.UserID,
			"action":  entry.Action,
		}).Error("Failed to append audit entry")
		return err
	}

	return nil
}
