package ledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM ledger_accounts")
		db.Exec("DELETE FROM ledger_transactions")
	})
	return db
}

func TestPostgresStoreCommit(t *testing.T) {
	store := NewPostgresStore(openTestDB(t))
	ctx := context.Background()

	acct := &Account{Key: ProgramIDFromName("pg-acct"), Owner: scriptID, Space: 32, Data: []byte("state")}
	code := uint32(6001)
	rec := &TransactionRecord{
		Signature: Signature{9, 9},
		Slot:      7,
		Status:    TxStatusSuccess,
		Logs:      []string{"hello"},
		Events:    []Event{{Program: scriptID, Name: "x", Payload: []byte(`{"a":1}`)}},
		Written:   []Pubkey{acct.Key},
		ErrorCode: &code,
		BlockTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := store.Commit(ctx, []*Account{acct}, rec); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := store.Commit(ctx, nil, rec); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("duplicate Commit: got %v, want ErrAlreadyProcessed", err)
	}

	got, err := store.GetAccount(ctx, acct.Key)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.equal(acct) {
		t.Errorf("account = %+v, want %+v", got, acct)
	}
	many, err := store.GetAccounts(ctx, []Pubkey{acct.Key, ProgramIDFromName("missing")})
	if err != nil || len(many) != 1 {
		t.Errorf("GetAccounts = %v, %v", many, err)
	}

	gotRec, err := store.GetTransaction(ctx, rec.Signature)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if gotRec.Slot != 7 || len(gotRec.Events) != 1 || gotRec.Written[0] != acct.Key || *gotRec.ErrorCode != code {
		t.Errorf("record = %+v", gotRec)
	}

	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
	got.Data = []byte("next")
	if err := store.Commit(ctx, []*Account{got}, &TransactionRecord{Signature: Signature{9, 10}, Slot: 8, Status: TxStatusSuccess}); err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	got, _ = store.GetAccount(ctx, acct.Key)
	if string(got.Data) != "next" || got.Version != 2 {
		t.Errorf("account = %+v after update", got)
	}
	if slot, err := store.LatestSlot(ctx); err != nil || slot != 8 {
		t.Errorf("LatestSlot = %d, %v, want 8", slot, err)
	}
}

func TestPostgresStoreRejectsStaleWrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	first, second := NewPostgresStore(db), NewPostgresStore(db)

	key := ProgramIDFromName("pg-contended")
	if err := first.Commit(ctx, []*Account{{Key: key, Owner: scriptID, Space: 8, Data: []byte{0}}},
		&TransactionRecord{Signature: Signature{7, 1}, Slot: 1, Status: TxStatusSuccess}); err != nil {
		t.Fatalf("create: %v", err)
	}

	a, _ := first.GetAccount(ctx, key)
	b, _ := second.GetAccount(ctx, key)
	a.Data = []byte{1}
	b.Data = []byte{2}
	if err := first.Commit(ctx, []*Account{a}, &TransactionRecord{Signature: Signature{7, 2}, Slot: 2, Status: TxStatusSuccess}); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	err := second.Commit(ctx, []*Account{b}, &TransactionRecord{Signature: Signature{7, 3}, Slot: 2, Status: TxStatusSuccess})
	if !errors.Is(err, ErrStaleAccount) {
		t.Fatalf("second writer: got %v, want ErrStaleAccount", err)
	}
	if ok, _ := second.HasTransaction(ctx, Signature{7, 3}); ok {
		t.Error("rejected transaction was recorded")
	}
	got, _ := second.GetAccount(ctx, key)
	if got.Data[0] != 1 {
		t.Errorf("data = %v, want first writer's update", got.Data)
	}

	recreate := &Account{Key: key, Owner: scriptID, Space: 8}
	err = second.Commit(ctx, []*Account{recreate}, &TransactionRecord{Signature: Signature{7, 4}, Slot: 3, Status: TxStatusSuccess})
	if !errors.Is(err, ErrStaleAccount) {
		t.Errorf("create over existing: got %v, want ErrStaleAccount", err)
	}
}
