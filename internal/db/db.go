// Package db provides a GORM-based database layer for metascope.
// It stores the org login, search history and install state in SQLite
// through the pure-Go driver.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/asteroid-belt/metascope/internal/models"
)

// DB wraps the GORM database connection with metascope-specific operations.
type DB struct {
	*gorm.DB
	path string
}

// Config holds database configuration options.
type Config struct {
	Path        string
	Debug       bool
	MaxIdleConn int
	MaxOpenConn int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		Debug:       false,
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	}
}

// New creates a new database connection and runs migrations.
func New(cfg Config) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	// DELETE journal mode: WAL has visibility issues with the pure-Go driver.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Hour)

	wrapped := &DB{DB: db, path: cfg.Path}

	if err := wrapped.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := wrapped.seedUserState(); err != nil {
		return nil, fmt.Errorf("seed user state: %w", err)
	}

	// The database holds access tokens.
	_ = os.Chmod(cfg.Path, 0600)

	return wrapped, nil
}

// migrate runs GORM auto-migrations for all models.
func (db *DB) migrate() error {
	return db.AutoMigrate(
		&models.Credential{},
		&models.SearchHistory{},
		&models.UserState{},
	)
}

func (db *DB) seedUserState() error {
	state := models.UserState{ID: "default"}
	return db.Where("id = ?", "default").FirstOrCreate(&state).Error
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes fc within a database transaction. A non-nil error
// from fc rolls the transaction back.
func (d *DB) Transaction(fc func(tx *DB) error) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		return fc(&DB{DB: tx, path: d.path})
	})
}

// Stats is a summary of stored data.
type Stats struct {
	Searches       int64
	LoggedIn       bool
	CacheSizeBytes int64
}

// GetStats returns aggregate statistics about the database.
func (db *DB) GetStats() (*Stats, error) {
	var stats Stats

	if err := db.Model(&models.SearchHistory{}).Count(&stats.Searches).Error; err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}

	var creds int64
	if err := db.Model(&models.Credential{}).Count(&creds).Error; err != nil {
		return nil, fmt.Errorf("count credentials: %w", err)
	}
	stats.LoggedIn = creds > 0

	if info, err := os.Stat(db.path); err == nil {
		stats.CacheSizeBytes = info.Size()
	}

	return &stats, nil
}
