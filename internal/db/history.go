package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/asteroid-belt/metascope/internal/models"
)

// MaxHistory is how many search history rows are kept.
const MaxHistory = 200

// RecordSearch appends entry to the search history and prunes old rows.
func (db *DB) RecordSearch(entry *models.SearchHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	return db.Transaction(func(tx *DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("insert search history: %w", err)
		}
		if err := tx.TouchLastSearch(entry.CreatedAt); err != nil {
			return fmt.Errorf("update user state: %w", err)
		}
		return tx.pruneHistory(MaxHistory)
	})
}

// RecentSearches returns up to limit history rows, newest first.
func (db *DB) RecentSearches(limit int) ([]models.SearchHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.SearchHistory
	err := db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// ClearHistory deletes every history row.
func (db *DB) ClearHistory() error {
	return db.Where("1 = 1").Delete(&models.SearchHistory{}).Error
}

func (db *DB) pruneHistory(keep int) error {
	var count int64
	if err := db.Model(&models.SearchHistory{}).Count(&count).Error; err != nil {
		return err
	}
	if count <= int64(keep) {
		return nil
	}

	stale := db.Model(&models.SearchHistory{}).
		Select("id").
		Order("created_at DESC").
		Offset(keep).
		Limit(int(count) - keep)
	return db.Where("id IN (?)", stale).Delete(&models.SearchHistory{}).Error
}
