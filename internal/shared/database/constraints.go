package database

import "gorm.io/gorm"

// MigrateConstraints adds the lookup indexes AutoMigrate does not create
func MigrateConstraints(db *gorm.DB) error {
	// Accounts by owning program, for program-wide scans
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ledger_accounts_owner
		ON ledger_accounts (owner);
	`).Error
	if err != nil {
		return err
	}

	// Transactions by fee payer, newest first
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ledger_transactions_fee_payer_slot
		ON ledger_transactions (fee_payer, slot DESC);
	`).Error
	if err != nil {
		return err
	}

	// Failed transactions are kept for inspection; index them apart
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ledger_transactions_failed
		ON ledger_transactions (slot) WHERE status = 'failed';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
