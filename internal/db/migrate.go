package db

import (
	"poolfinder/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Pool{},
		&models.FreeSwimSchedule{},
		&models.PoolPrice{},
		&models.Review{},
		&models.SyncState{},
	)
}
