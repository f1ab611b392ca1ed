package db

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/metascope/internal/models"
)

// GetCredential returns the stored login, or nil when none is stored.
func (db *DB) GetCredential() (*models.Credential, error) {
	var cred models.Credential
	err := db.Where("id = ?", models.DefaultCredentialID).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// SaveCredential stores cred as the single login, replacing any previous one.
func (db *DB) SaveCredential(cred *models.Credential) error {
	cred.ID = models.DefaultCredentialID
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"instance_url", "access_token", "refresh_token", "issued_at", "updated_at",
		}),
	}).Create(cred).Error
}

// DeleteCredential removes the stored login. Deleting when none exists is
// not an error.
func (db *DB) DeleteCredential() error {
	return db.Where("id = ?", models.DefaultCredentialID).Delete(&models.Credential{}).Error
}
