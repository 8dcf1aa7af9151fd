package models

import "time"

// ChangeType classifies an inventory movement.
type ChangeType string

const (
	ChangeTypeUp    ChangeType = "up"
	ChangeTypeDown  ChangeType = "down"
	ChangeTypeFirst ChangeType = "first"
	ChangeTypeZero  ChangeType = "zero"
)

// ChangeEvent is one observed inventory movement for a product at a store.
type ChangeEvent struct {
	ID         int64      `json:"id"`
	PLU        int        `json:"plu"`
	StoreID    int        `json:"store_id"`
	CheckTime  time.Time  `json:"check_time"`
	OldQty     int        `json:"old_qty"`
	NewQty     int        `json:"new_qty"`
	ChangeType ChangeType `json:"change_type"`
}

// Watermark records how far a user has been notified for one PLU.
type Watermark struct {
	UserID            string    `json:"user_id"`
	PLU               int       `json:"plu"`
	LastNotified      time.Time `json:"last_notified"`
	NotificationCount int       `json:"notification_count"`
}

// ProductDigest is the per-product section of a digest email.
type ProductDigest struct {
	PLU    int
	Name   string
	Events []ChangeEvent
}

// Digest is the rendered input for one user's notification email.
type Digest struct {
	UserID    string
	Email     string
	FirstName string
	Products  []ProductDigest
}
