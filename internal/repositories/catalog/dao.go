package catalog

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/models"
)

const (
	catalogTable = "catalog_items"
)

// ProductRow represents the database row for a catalog item
type ProductRow struct {
	PLU            sql.NullInt64   `db:"plu"`
	BrandName      sql.NullString  `db:"brand_name"`
	Tier           sql.NullString  `db:"listing_tier"`
	RetailPrice    sql.NullFloat64 `db:"retail_price"`
	SizeML         sql.NullInt64   `db:"size_ml"`
	BottlesPerCase sql.NullInt64   `db:"bottles_per_case"`
	ImagePath      sql.NullString  `db:"image_path"`
	CreatedAt      sql.NullTime    `db:"created_at"`
	UpdatedAt      sql.NullTime    `db:"updated_at"`
}

var productStruct = database.NewStruct(new(ProductRow))

// ToProduct converts a database row to a domain model
func ToProduct(row *ProductRow) *models.Product {
	return &models.Product{
		PLU:            int(row.PLU.Int64),
		BrandName:      row.BrandName.String,
		Tier:           row.Tier.String,
		RetailPrice:    row.RetailPrice.Float64,
		SizeML:         int(row.SizeML.Int64),
		BottlesPerCase: int(row.BottlesPerCase.Int64),
		ImagePath:      row.ImagePath.String,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

// ToProducts converts a slice of database rows to domain models
func ToProducts(rows []ProductRow) []*models.Product {
	products := make([]*models.Product, len(rows))
	for i, row := range rows {
		products[i] = ToProduct(&row)
	}
	return products
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
