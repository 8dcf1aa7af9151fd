package store

import (
	"database/sql"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	storesTable = "stores"
)

// StoreRow represents the database row for a store
type StoreRow struct {
	StoreID              sql.NullInt64  `db:"store_id"`
	StoreNumber          sql.NullString `db:"store_number"`
	Nickname             sql.NullString `db:"nickname"`
	Region               sql.NullString `db:"region"`
	Address              sql.NullString `db:"address"`
	DeliveryIntervalDays sql.NullInt64  `db:"delivery_interval_days"`
	MixedBeverage        sql.NullBool   `db:"mixed_beverage"`
}

var storeStruct = database.NewStruct(new(StoreRow))

// ToStore converts a database row to a domain model
func ToStore(row *StoreRow) *models.Store {
	return &models.Store{
		StoreID:              int(row.StoreID.Int64),
		StoreNumber:          row.StoreNumber.String,
		Nickname:             row.Nickname.String,
		Region:               row.Region.String,
		Address:              row.Address.String,
		DeliveryIntervalDays: int(row.DeliveryIntervalDays.Int64),
		MixedBeverage:        row.MixedBeverage.Bool,
	}
}

// ToStores converts a slice of database rows to domain models
func ToStores(rows []StoreRow) []*models.Store {
	stores := make([]*models.Store, len(rows))
	for i, row := range rows {
		stores[i] = ToStore(&row)
	}
	return stores
}
