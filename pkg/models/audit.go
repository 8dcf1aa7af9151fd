package models

import "time"

// Audit actions recorded on watchlist mutations.
const (
	AuditActionAdd        = "add"
	AuditActionUpdate     = "update"
	AuditActionRemove     = "remove"
	AuditActionBulkToggle = "bulk_toggle"
	AuditActionImport     = "import"
	AuditActionReset      = "reset"
)

// AuditEntry is one appended watchlist mutation record.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	PLU       int            `json:"plu,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
