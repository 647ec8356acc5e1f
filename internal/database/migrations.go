package database

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const snapshotsTable = "portfolio_value_snapshots"

// cleanupDuplicateSnapshots removes duplicate snapshot rows from a table that
// was created without the unique index, such as one written by hand or by
// another tool. It runs BEFORE AutoMigrate so the index can be added.
func cleanupDuplicateSnapshots(db *gorm.DB) error {
	if !db.Migrator().HasTable(snapshotsTable) {
		return nil
	}

	// Keep the most recently written row per owner, platform and day
	result := db.Exec(`
		DELETE FROM ` + snapshotsTable + `
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM ` + snapshotsTable + `
			GROUP BY owner_id, platform, snapshot_date
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Infof("Cleaned up %d duplicate snapshot entries", result.RowsAffected)
	}

	return nil
}
