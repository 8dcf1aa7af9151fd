package models

// Store is a retail location referenced by change events.
type Store struct {
	StoreID              int    `json:"store_id"`
	StoreNumber          string `json:"store_number"`
	Nickname             string `json:"nickname,omitempty"`
	Region               string `json:"region,omitempty"`
	Address              string `json:"address,omitempty"`
	DeliveryIntervalDays int    `json:"delivery_interval_days,omitempty"`
	MixedBeverage        bool   `json:"mixed_beverage"`
}

// DisplayName returns the store name used in digests: nickname when set,
// otherwise the store number.
func (s *Store) DisplayName() string {
	if s.Nickname != "" {
		return s.Nickname
	}
	if s.StoreNumber != "" {
		return "Store " + s.StoreNumber
	}
	return "Unknown Store"
}
