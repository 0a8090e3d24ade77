package database

import (
	"concertticket/internal/ledger"

	"gorm.io/gorm"
)

// Migrate creates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(ledger.Models()...)
}
