package models

import "time"

// Listing tiers that are tracked by default for every user.
const (
	TierLimited    = "Limited"
	TierAllocation = "Allocation"
	TierBarrel     = "Barrel"
)

// TrackedTiers returns the listing tiers that make up the shared default
// watchlist.
func TrackedTiers() []string {
	return []string{TierLimited, TierAllocation, TierBarrel}
}

// Product is a catalog item keyed by its PLU code.
type Product struct {
	PLU            int       `json:"plu"`
	BrandName      string    `json:"brand_name"`
	Tier           string    `json:"tier"`
	RetailPrice    float64   `json:"retail_price"`
	SizeML         int       `json:"size_ml"`
	BottlesPerCase int       `json:"bottles_per_case"`
	ImagePath      string    `json:"image_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CatalogEntry is a catalog item decorated with the caller's toggle state for
// the catalog browse view.
type CatalogEntry struct {
	Product
	IsWatching bool  `json:"is_watching"`
	CanToggle  bool  `json:"can_toggle"`
	WatchID    int64 `json:"watch_id,omitempty"`
}
