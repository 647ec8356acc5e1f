package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// Initialize opens the snapshot database at dbPath and migrates its schema.
// ":memory:" gives a private in-memory database.
func Initialize(dbPath string) (*gorm.DB, error) {
	logLevel := logger.Warn
	if log.IsLevelEnabled(log.DebugLevel) {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; an in-memory database also only lives on one connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.WithField("path", dbPath).Info("Database connected successfully")

	if err := cleanupDuplicateSnapshots(db); err != nil {
		return nil, fmt.Errorf("failed to clean up snapshots: %w", err)
	}

	if err := db.AutoMigrate(&models.PortfolioValueSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database migration completed")
	return db, nil
}
