package models

import "time"

// SearchHistory records one completed search.
type SearchHistory struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Term        string    `gorm:"size:256;not null;index" json:"term"`
	Categories  string    `gorm:"size:512" json:"categories,omitempty"` // comma-separated filter, empty for all
	ResultCount int       `json:"result_count"`
	DurationMS  int64     `json:"duration_ms"`
	Partial     bool      `json:"partial"`
	TopResult   string    `gorm:"size:512" json:"top_result,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (SearchHistory) TableName() string {
	return "search_history"
}
