package models

import (
	"strings"
	"time"
)

// DefaultCredentialID is the key of the single stored org login.
const DefaultCredentialID = "default"

// Credential is a stored Salesforce login.
type Credential struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	InstanceURL  string    `gorm:"size:512;not null" json:"instance_url"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	IssuedAt     time.Time `json:"issued_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Credential) TableName() string {
	return "credentials"
}

// CanRefresh reports whether a refresh token is available.
func (c *Credential) CanRefresh() bool {
	return strings.TrimSpace(c.RefreshToken) != ""
}

// Host returns the instance URL without scheme, for display.
func (c *Credential) Host() string {
	host := strings.TrimPrefix(c.InstanceURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}
