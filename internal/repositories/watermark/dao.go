package watermark

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	watermarksTable = "notification_watermarks"
)

// WatermarkRow represents the database row for a notification watermark
type WatermarkRow struct {
	UserID            sql.NullString `db:"user_id"`
	PLU               sql.NullInt64  `db:"plu"`
	LastNotified      sql.NullTime   `db:"last_notified"`
	NotificationCount sql.NullInt64  `db:"notification_count"`
}

var watermarkStruct = database.NewStruct(new(WatermarkRow))

// ToWatermark converts a database row to a domain model
func ToWatermark(row *WatermarkRow) *models.Watermark {
	return &models.Watermark{
		UserID:            row.UserID.String,
		PLU:               int(row.PLU.Int64),
		LastNotified:      row.LastNotified.Time,
		NotificationCount: int(row.NotificationCount.Int64),
	}
}

// ToWatermarks converts a slice of database rows to domain models
func ToWatermarks(rows []WatermarkRow) []*models.Watermark {
	marks := make([]*models.Watermark, len(rows))
	for i, row := range rows {
		marks[i] = ToWatermark(&row)
	}
	return marks
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
