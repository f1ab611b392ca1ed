package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/metascope/internal/models"
)

// GetUserState retrieves the current install state.
func (db *DB) GetUserState() (*models.UserState, error) {
	var state models.UserState
	err := db.Where("id = ?", "default").First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.UserState{ID: "default"}, nil
		}
		return nil, err
	}
	return &state, nil
}

// TouchLastSearch records the time of the latest completed search.
func (db *DB) TouchLastSearch(at time.Time) error {
	state := models.UserState{
		ID:           "default",
		LastSearchAt: at,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_search_at", "updated_at"}),
	}).Create(&state).Error
}

// GetOrCreateTrackingID returns the persistent tracking ID, creating one if it doesn't exist.
// On any error, it falls back to generating a per-session ID.
func (db *DB) GetOrCreateTrackingID() string {
	state, err := db.GetUserState()
	if err != nil {
		return generateSessionID()
	}

	if state.TrackingID != "" {
		return state.TrackingID
	}

	trackingID := generateSessionID()
	state.TrackingID = trackingID
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tracking_id", "updated_at"}),
	}).Create(state).Error
	if err != nil {
		// Even if save fails, return the generated ID for this session
		return trackingID
	}

	return trackingID
}

// generateSessionID creates a new UUID for session-based tracking.
func generateSessionID() string {
	return uuid.New().String()
}
