package audit

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	auditTable = "watchlist_audit"
)

// AuditRow represents the database row for an audit entry
type AuditRow struct {
	ID        sql.NullInt64                  `db:"id" fieldopt:"omitempty"`
	UserID    sql.NullString                 `db:"user_id"`
	Action    sql.NullString                 `db:"action"`
	PLU       sql.NullInt64                  `db:"plu"`
	Details   database.JSONB[map[string]any] `db:"details"`
	IPAddress sql.NullString                 `db:"ip_address"`
	UserAgent sql.NullString                 `db:"user_agent"`
	CreatedAt sql.NullTime                   `db:"created_at"`
}

var auditStruct = database.NewStruct(new(AuditRow))

// FromAuditEntry converts a domain model to a database row
func FromAuditEntry(e *models.AuditEntry) *AuditRow {
	return &AuditRow{
		UserID:    sql.NullString{String: e.UserID, Valid: e.UserID != ""},
		Action:    sql.NullString{String: e.Action, Valid: e.Action != ""},
		PLU:       sql.NullInt64{Int64: int64(e.PLU), Valid: e.PLU != 0},
		Details:   database.JSONB[map[string]any]{Data: e.Details},
		IPAddress: sql.NullString{String: e.IPAddress, Valid: e.IPAddress != ""},
		UserAgent: sql.NullString{String: e.UserAgent, Valid: e.UserAgent != ""},
		CreatedAt: sql.NullTime{Time: e.CreatedAt, Valid: !e.CreatedAt.IsZero()},
	}
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
