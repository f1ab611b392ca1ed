package models

import "time"

// UserState holds per-install state.
// Note: The table name is "user_state" to avoid conflicts with reserved keywords.
type UserState struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	TrackingID   string    `gorm:"size:64" json:"tracking_id"`
	LastSearchAt time.Time `json:"last_search_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (UserState) TableName() string {
	return "user_state"
}

// HasSearched reports whether a search has ever completed.
func (s *UserState) HasSearched() bool {
	return !s.LastSearchAt.IsZero()
}
