package models

import "time"

// InterestType is the marker a user places on a PLU.
type InterestType string

const (
	// InterestInterested adds the PLU to the user's effective watchlist.
	InterestInterested InterestType = "interested"
	// InterestNotInterested removes a default-tracked PLU from the user's
	// effective watchlist.
	InterestNotInterested InterestType = "not_interested"
)

// Valid reports whether the marker is one of the known interest types.
func (t InterestType) Valid() bool {
	return t == InterestInterested || t == InterestNotInterested
}

// Preference is a user's per-PLU watchlist override. At most one active
// preference exists per (user, plu).
type Preference struct {
	WatchID      int64        `json:"watch_id"`
	UserID       string       `json:"user_id"`
	PLU          int          `json:"plu"`
	Interest     InterestType `json:"interest_type"`
	CustomName   string       `json:"custom_name,omitempty"`
	CustomPrice  float64      `json:"custom_price,omitempty"`
	CustomSizeML int          `json:"custom_size_ml,omitempty"`
	NotifyEmail  bool         `json:"notify_email"`
	NotifyText   bool         `json:"notify_text"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Watchlist entry sources. Default entries come from the tracked catalog
// tiers; custom entries come from a user's interested markers.
const (
	SourceDefault = "default"
	SourceCustom  = "custom"
)

// WatchlistEntry is one row of a user's resolved effective watchlist.
type WatchlistEntry struct {
	PLU         int     `json:"plu"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Tier        string  `json:"tier,omitempty"`
	RetailPrice float64 `json:"retail_price,omitempty"`
	SizeML      int     `json:"size_ml,omitempty"`
	ImagePath   string  `json:"image_path,omitempty"`
	WatchID     int64   `json:"watch_id,omitempty"`
	NotifyEmail bool    `json:"notify_email"`
	NotifyText  bool    `json:"notify_text"`
}
