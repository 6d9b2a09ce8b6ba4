package db

import (
	"coliseum/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Agent{},
		&models.Fight{},
		&models.Market{},
		&models.Bet{},
	)
}
