package models

// Notification frequency values.
const (
	FrequencyHourly = "hourly"
	FrequencyDaily  = "daily"
)

// User is the read-side account record consumed by the notifier.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name,omitempty"`
	NotifyEmail     bool   `json:"notify_email"`
	NotifyFrequency string `json:"notify_frequency"`
	Status          string `json:"status"`
}
