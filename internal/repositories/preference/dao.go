package preference

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	preferencesTable = "watchlist_preferences"
)

// PreferenceRow represents the database row for a watchlist preference.
// watch_id is assigned by the database and omitted from inserts.
type PreferenceRow struct {
	WatchID      sql.NullInt64   `db:"watch_id" fieldopt:"omitempty"`
	UserID       sql.NullString  `db:"user_id"`
	PLU          sql.NullInt64   `db:"plu"`
	Interest     sql.NullString  `db:"interest_type"`
	CustomName   sql.NullString  `db:"custom_name"`
	CustomPrice  sql.NullFloat64 `db:"custom_price"`
	CustomSizeML sql.NullInt64   `db:"custom_size_ml"`
	NotifyEmail  sql.NullBool    `db:"notify_email"`
	NotifyText   sql.NullBool    `db:"notify_text"`
	Active       sql.NullBool    `db:"active"`
	CreatedAt    sql.NullTime    `db:"created_at"`
}

var preferenceStruct = database.NewStruct(new(PreferenceRow))

// FromPreference converts a domain model to a database row
func FromPreference(p *models.Preference) *PreferenceRow {
	return &PreferenceRow{
		WatchID:      sql.NullInt64{Int64: p.WatchID, Valid: p.WatchID != 0},
		UserID:       sql.NullString{String: p.UserID, Valid: p.UserID != ""},
		PLU:          sql.NullInt64{Int64: int64(p.PLU), Valid: p.PLU != 0},
		Interest:     sql.NullString{String: string(p.Interest), Valid: p.Interest != ""},
		CustomName:   sql.NullString{String: p.CustomName, Valid: p.CustomName != ""},
		CustomPrice:  sql.NullFloat64{Float64: p.CustomPrice, Valid: p.CustomPrice != 0},
		CustomSizeML: sql.NullInt64{Int64: int64(p.CustomSizeML), Valid: p.CustomSizeML != 0},
		NotifyEmail:  sql.NullBool{Bool: p.NotifyEmail, Valid: true},
		NotifyText:   sql.NullBool{Bool: p.NotifyText, Valid: true},
		Active:       sql.NullBool{Bool: p.Active, Valid: true},
		CreatedAt:    sql.NullTime{Time: p.CreatedAt, Valid: !p.CreatedAt.IsZero()},
	}
}

// ToPreference converts a database row to a domain model
func ToPreference(row *PreferenceRow) *models.Preference {
	return &models.Preference{
		WatchID:      row.WatchID.Int64,
		UserID:       row.UserID.String,
		PLU:          int(row.PLU.Int64),
		Interest:     models.InterestType(row.Interest.String),
		CustomName:   row.CustomName.String,
		CustomPrice:  row.CustomPrice.Float64,
		CustomSizeML: int(row.CustomSizeML.Int64),
		NotifyEmail:  row.NotifyEmail.Bool,
		NotifyText:   row.NotifyText.Bool,
		Active:       row.Active.Bool,
		CreatedAt:    row.CreatedAt.Time,
	}
}

// ToPreferences converts a slice of database rows to domain models
func ToPreferences(rows []PreferenceRow) []*models.Preference {
	prefs := make([]*models.Preference, len(rows))
	for i, row := range rows {
		prefs[i] = ToPreference(&row)
	}
	return prefs
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
