package changefeed

import (
	"database/sql"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	changesTable = "inventory_changes"
)

// ChangeRow represents the database row for an inventory change event
type ChangeRow struct {
	ID         sql.NullInt64  `db:"id"`
	PLU        sql.NullInt64  `db:"plu"`
	StoreID    sql.NullInt64  `db:"store_id"`
	CheckTime  sql.NullTime   `db:"check_time"`
	OldQty     sql.NullInt64  `db:"old_qty"`
	NewQty     sql.NullInt64  `db:"new_qty"`
	ChangeType sql.NullString `db:"change_type"`
}

var changeStruct = database.NewStruct(new(ChangeRow))

// ToChangeEvent converts a database row to a domain model
func ToChangeEvent(row *ChangeRow) *models.ChangeEvent {
	return &models.ChangeEvent{
		ID:         row.ID.Int64,
		PLU:        int(row.PLU.Int64),
		StoreID:    int(row.StoreID.Int64),
		CheckTime:  row.CheckTime.Time,
		OldQty:     int(row.OldQty.Int64),
		NewQty:     int(row.NewQty.Int64),
		ChangeType: models.ChangeType(row.ChangeType.String),
	}
}

// ToChangeEvents converts a slice of database rows to domain models
func ToChangeEvents(rows []ChangeRow) []*models.ChangeEvent {
	events := make([]*models.ChangeEvent, len(rows))
	for i, row := range rows {
		events[i] = ToChangeEvent(&row)
	}
	return events
}
