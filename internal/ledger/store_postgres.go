package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRow is the ledger_accounts table.
type AccountRow struct {
	Key         []byte    `gorm:"primaryKey;type:bytea"`
	Owner       []byte    `gorm:"type:bytea;not null"`
	Space       int       `gorm:"not null"`
	Data        []byte    `gorm:"type:bytea"`
	Version     uint64    `gorm:"not null;default:0"`
	UpdatedSlot uint64    `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (AccountRow) TableName() string { return "ledger_accounts" }

// TransactionRow is the ledger_transactions table.
type TransactionRow struct {
	Signature []byte    `gorm:"primaryKey;type:bytea"`
	Slot      uint64    `gorm:"not null;index"`
	FeePayer  []byte    `gorm:"type:bytea;not null"`
	Status    string    `gorm:"type:varchar(16);not null"`
	Error     string    `gorm:"type:text"`
	ErrorCode *int64    `gorm:"column:error_code"`
	Logs      []string  `gorm:"serializer:json;type:jsonb"`
	Events    []Event   `gorm:"serializer:json;type:jsonb"`
	Written   []Pubkey  `gorm:"serializer:json;type:jsonb"`
	BlockTime time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (TransactionRow) TableName() string { return "ledger_transactions" }

// Models lists the tables PostgresStore needs migrated.
func Models() []any {
	return []any{&AccountRow{}, &TransactionRow{}}
}

// PostgresStore persists the ledger through gorm. Each commit is one
// database transaction.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func toAccount(row *AccountRow) *Account {
	acct := &Account{Space: row.Space, Data: row.Data, Version: row.Version}
	copy(acct.Key[:], row.Key)
	copy(acct.Owner[:], row.Owner)
	return acct
}

func (s *PostgresStore) GetAccount(ctx context.Context, key Pubkey) (*Account, error) {
	var row AccountRow
	err := s.db.WithContext(ctx).Where("key = ?", key[:]).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("loading account %s: %w", key, err)
	}
	return toAccount(&row), nil
}

func (s *PostgresStore) GetAccounts(ctx context.Context, keys []Pubkey) (map[Pubkey]*Account, error) {
	out := make(map[Pubkey]*Account, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	raw := make([][]byte, len(keys))
	for i := range keys {
		raw[i] = keys[i][:]
	}
	var rows []AccountRow
	if err := s.db.WithContext(ctx).Where("key IN ?", raw).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	for i := range rows {
		acct := toAccount(&rows[i])
		out[acct.Key] = acct
	}
	return out, nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, sig Signature) (*TransactionRecord, error) {
	var row TransactionRow
	err := s.db.WithContext(ctx).Where("signature = ?", sig[:]).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("loading transaction %s: %w", sig, err)
	}
	rec := &TransactionRecord{
		Slot:      row.Slot,
		Status:    TxStatus(row.Status),
		Error:     row.Error,
		Logs:      row.Logs,
		Events:    row.Events,
		Written:   row.Written,
		BlockTime: row.BlockTime.UTC(),
	}
	copy(rec.Signature[:], row.Signature)
	copy(rec.FeePayer[:], row.FeePayer)
	if row.ErrorCode != nil {
		code := uint32(*row.ErrorCode)
		rec.ErrorCode = &code
	}
	return rec, nil
}

func (s *PostgresStore) HasTransaction(ctx context.Context, sig Signature) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&TransactionRow{}).Where("signature = ?", sig[:]).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking transaction %s: %w", sig, err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Commit(ctx context.Context, accounts []*Account, record *TransactionRecord) error {
	row := TransactionRow{
		Signature: record.Signature[:],
		Slot:      record.Slot,
		FeePayer:  record.FeePayer[:],
		Status:    string(record.Status),
		Error:     record.Error,
		Logs:      record.Logs,
		Events:    record.Events,
		Written:   record.Written,
		BlockTime: record.BlockTime,
	}
	if record.ErrorCode != nil {
		code := int64(*record.ErrorCode)
		row.ErrorCode = &code
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("inserting transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}
		for _, acct := range accounts {
			if err := writeAccount(tx, acct, record); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeAccount inserts a new account or updates an existing one only if
// its version is still the one the transaction loaded. Another writer on
// the same database makes the statement affect no rows.
func writeAccount(tx *gorm.DB, acct *Account, record *TransactionRecord) error {
	var res *gorm.DB
	if acct.Version == 0 {
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&AccountRow{
			Key:         acct.Key.Bytes(),
			Owner:       acct.Owner.Bytes(),
			Space:       acct.Space,
			Data:        acct.Data,
			Version:     1,
			UpdatedSlot: record.Slot,
			UpdatedAt:   record.BlockTime,
		})
	} else {
		res = tx.Model(&AccountRow{}).
			Where("key = ? AND version = ?", acct.Key.Bytes(), acct.Version).
			Updates(map[string]any{
				"owner":        acct.Owner.Bytes(),
				"space":        acct.Space,
				"data":         acct.Data,
				"version":      acct.Version + 1,
				"updated_slot": record.Slot,
				"updated_at":   record.BlockTime,
			})
	}
	if res.Error != nil {
		return fmt.Errorf("writing account %s: %w", acct.Key, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrStaleAccount, acct.Key)
	}
	return nil
}

func (s *PostgresStore) LatestSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := s.db.WithContext(ctx).Model(&TransactionRow{}).Select("COALESCE(MAX(slot), 0)").Scan(&slot).Error
	if err != nil {
		return 0, fmt.Errorf("loading latest slot: %w", err)
	}
	return slot, nil
}

// Close is a no-op; the connection pool belongs to database.DB.
func (s *PostgresStore) Close() error { return nil }
