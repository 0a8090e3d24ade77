package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"concertticket/internal/shared/clock"
	"concertticket/pkg/logger"
)

const (
	opCreate byte = iota
	opWrite
	opWriteThenFail
	opCreateDerived
	opInvokeEcho
	opInvokeEchoWithAuthority
	opIncrement
	opEmit
)

var (
	scriptID = ProgramIDFromName("script")
	echoID   = ProgramIDFromName("echo")
	errBoom  = errors.New("boom")
)

// scriptProgram runs the op named by the first data byte.
type scriptProgram struct{}

func (scriptProgram) Process(ic *InvokeContext, accounts []*AccountInfo, data []byte) error {
	switch data[0] {
	case opCreate:
		return ic.CreateAccount(accounts[0], int(data[1]))
	case opWrite:
		return accounts[0].SetData(data[1:])
	case opWriteThenFail:
		if err := accounts[0].SetData(data[1:]); err != nil {
			return err
		}
		return errBoom
	case opCreateDerived:
		auth, _, err := FindDerivedAuthority(ic.ProgramID(), []byte("pda"))
		if err != nil {
			return err
		}
		return ic.CreateAccount(accounts[0], 8, auth)
	case opInvokeEcho, opInvokeEchoWithAuthority:
		var auths []DerivedAuthority
		if data[0] == opInvokeEchoWithAuthority {
			auth, _, err := FindDerivedAuthority(ic.ProgramID(), []byte("pda"))
			if err != nil {
				return err
			}
			auths = append(auths, auth)
		}
		return ic.Invoke(Instruction{
			ProgramID: echoID,
			Accounts:  []AccountMeta{Signer(accounts[0].Key)},
		}, auths...)
	case opIncrement:
		var n uint64
		if raw := accounts[0].Data(); len(raw) == 8 {
			n = binary.LittleEndian.Uint64(raw)
		}
		return accounts[0].SetData(binary.LittleEndian.AppendUint64(nil, n+1))
	case opEmit:
		ic.Log("emitting")
		return ic.Emit("pinged", map[string]string{"who": accounts[0].Key.String()})
	}
	return errors.New("unknown op")
}

// echoProgram requires its first account to sign.
type echoProgram struct{}

func (echoProgram) Process(ic *InvokeContext, accounts []*AccountInfo, _ []byte) error {
	if !ic.IsSigner(accounts[0].Key) {
		return ErrMissingSignature
	}
	ic.Log("echo from %s", accounts[0].Key)
	return nil
}

type fixture struct {
	rt    *Runtime
	store *MemoryStore
	payer *Keypair
	nonce uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	rt := NewRuntime(store, clock.NewFixed(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)), WithLogger(logger.Discard()))
	rt.Register("script", scriptID, scriptProgram{})
	rt.Register("echo", echoID, echoProgram{})
	payer, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{rt: rt, store: store, payer: payer}
}

func (f *fixture) run(t *testing.T, metas []AccountMeta, data []byte, extra ...*Keypair) (*TransactionRecord, error) {
	t.Helper()
	f.nonce++
	tx, err := NewTransaction(f.nonce, []Instruction{{ProgramID: scriptID, Accounts: metas, Data: data}}, append([]*Keypair{f.payer}, extra...)...)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return f.rt.Execute(context.Background(), tx)
}

func (f *fixture) newAccount(t *testing.T, space byte) *Keypair {
	t.Helper()
	kp, err := NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.run(t, []AccountMeta{WritableSigner(kp.Pubkey())}, []byte{opCreate, space}, kp); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return kp
}

func TestExecuteCommitsChanges(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 16)

	rec, err := f.run(t, []AccountMeta{Writable(acct.Pubkey())}, []byte{opWrite, 'h', 'i'})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !rec.Succeeded() || len(rec.Written) != 1 || rec.Written[0] != acct.Pubkey() {
		t.Fatalf("unexpected record %+v", rec)
	}
	stored, err := f.store.GetAccount(context.Background(), acct.Pubkey())
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if string(stored.Data) != "hi" || stored.Owner != scriptID || stored.Space != 16 {
		t.Errorf("stored account = %+v", stored)
	}
	got, err := f.rt.GetTransaction(context.Background(), rec.Signature)
	if err != nil || got.Slot != rec.Slot {
		t.Errorf("GetTransaction = %+v, %v", got, err)
	}
}

func TestExecuteRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 16)
	if _, err := f.run(t, []AccountMeta{Writable(acct.Pubkey())}, []byte{opWrite, 'a'}); err != nil {
		t.Fatal(err)
	}

	rec, err := f.run(t, []AccountMeta{Writable(acct.Pubkey())}, []byte{opWriteThenFail, 'b'})
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want errBoom", err)
	}
	var ixErr *InstructionError
	if !errors.As(err, &ixErr) || ixErr.Index != 0 {
		t.Errorf("error %v is not an InstructionError for index 0", err)
	}
	if rec == nil || rec.Status != TxStatusFailed || len(rec.Written) != 0 {
		t.Fatalf("failed record = %+v", rec)
	}
	stored, _ := f.store.GetAccount(context.Background(), acct.Pubkey())
	if string(stored.Data) != "a" {
		t.Errorf("data = %q after failed transaction, want %q", stored.Data, "a")
	}
	if ok, _ := f.store.HasTransaction(context.Background(), rec.Signature); !ok {
		t.Error("failed transaction was not recorded")
	}
}

func TestExecuteRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 8)
	tx, err := NewTransaction(99, []Instruction{{ProgramID: scriptID, Accounts: []AccountMeta{Writable(acct.Pubkey())}, Data: []byte{opIncrement}}}, f.payer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.rt.Execute(context.Background(), tx); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if _, err := f.rt.Execute(context.Background(), tx); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second Execute: got %v, want ErrAlreadyProcessed", err)
	}
}

func TestExecuteSignatureChecks(t *testing.T) {
	f := newFixture(t)
	other, _ := NewKeypair()

	t.Run("signer meta without signature", func(t *testing.T) {
		_, err := f.run(t, []AccountMeta{WritableSigner(other.Pubkey())}, []byte{opCreate, 8})
		if !errors.Is(err, ErrMissingSignature) {
			t.Errorf("got %v, want ErrMissingSignature", err)
		}
	})

	t.Run("tampered message", func(t *testing.T) {
		tx, err := NewTransaction(1, []Instruction{{ProgramID: scriptID, Accounts: []AccountMeta{WritableSigner(other.Pubkey())}, Data: []byte{opCreate, 8}}}, f.payer, other)
		if err != nil {
			t.Fatal(err)
		}
		tx.Message.Instructions[0].Data = []byte{opCreate, 9}
		if _, err := f.rt.Execute(context.Background(), tx); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("got %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("unknown program", func(t *testing.T) {
		tx, err := NewTransaction(2, []Instruction{{ProgramID: ProgramIDFromName("nope"), Data: []byte{0}}}, f.payer)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.rt.Execute(context.Background(), tx); !errors.Is(err, ErrUnknownProgram) {
			t.Errorf("got %v, want ErrUnknownProgram", err)
		}
	})
}

func TestAccountWriteRules(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 4)

	tests := []struct {
		name string
		meta AccountMeta
		data []byte
		want error
	}{
		{"read-only", Readonly(acct.Pubkey()), []byte{opWrite, 1}, ErrReadonlyAccount},
		{"over budget", Writable(acct.Pubkey()), []byte{opWrite, 1, 2, 3, 4, 5}, ErrAccountDataTooSmall},
		{"missing account", Writable(ProgramIDFromName("ghost")), []byte{opWrite, 1}, ErrAccountNotFound},
		{"already exists", WritableSigner(acct.Pubkey()), []byte{opCreate, 4}, ErrAccountAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var extra []*Keypair
			if tt.meta.IsSigner {
				extra = append(extra, acct)
			}
			if _, err := f.run(t, []AccountMeta{tt.meta}, tt.data, extra...); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestForeignOwnerWriteRejected(t *testing.T) {
	f := newFixture(t)
	foreign := &Account{Key: ProgramIDFromName("foreign"), Owner: echoID, Space: 8}
	if err := f.store.Commit(context.Background(), []*Account{foreign}, &TransactionRecord{Signature: Signature{1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.run(t, []AccountMeta{Writable(foreign.Key)}, []byte{opWrite, 1}); !errors.Is(err, ErrExternalAccountModified) {
		t.Errorf("got %v, want ErrExternalAccountModified", err)
	}
}

func TestDerivedAccountsAndInvoke(t *testing.T) {
	f := newFixture(t)
	pda, _, err := FindProgramAddress([][]byte{[]byte("pda")}, scriptID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.run(t, []AccountMeta{Writable(pda)}, []byte{opCreate, 8}); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("create without authority: got %v, want ErrMissingSignature", err)
	}
	if _, err := f.run(t, []AccountMeta{Writable(pda)}, []byte{opCreateDerived}); err != nil {
		t.Fatalf("create with authority: %v", err)
	}
	if _, err := f.run(t, []AccountMeta{Readonly(pda)}, []byte{opInvokeEcho}); !errors.Is(err, ErrPrivilegeEscalation) {
		t.Fatalf("invoke without authority: got %v, want ErrPrivilegeEscalation", err)
	}
	rec, err := f.run(t, []AccountMeta{Readonly(pda)}, []byte{opInvokeEchoWithAuthority})
	if err != nil {
		t.Fatalf("invoke with authority: %v", err)
	}
	if len(rec.Logs) != 1 {
		t.Errorf("logs = %v, want the echo line", rec.Logs)
	}
}

func TestCommitHooksSeeEvents(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 8)
	var got []Event
	f.rt.OnCommit(func(_ context.Context, rec *TransactionRecord) {
		got = append(got, rec.Events...)
	})
	if _, err := f.run(t, []AccountMeta{Readonly(acct.Pubkey())}, []byte{opEmit}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "pinged" || got[0].Program != scriptID {
		t.Fatalf("events = %+v", got)
	}
}

func TestConcurrentWritersAreSerialized(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 8)
	const workers = 32

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		tx, err := NewTransaction(uint64(1000+i), []Instruction{{ProgramID: scriptID, Accounts: []AccountMeta{Writable(acct.Pubkey())}, Data: []byte{opIncrement}}}, f.payer)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.rt.Execute(context.Background(), tx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Execute: %v", err)
	}
	stored, _ := f.store.GetAccount(context.Background(), acct.Pubkey())
	if n := binary.LittleEndian.Uint64(stored.Data); n != workers {
		t.Errorf("counter = %d, want %d", n, workers)
	}
}

func TestMemoryStoreRejectsStaleWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := ProgramIDFromName("contended")
	if err := store.Commit(ctx, []*Account{{Key: key, Owner: scriptID, Space: 8}}, &TransactionRecord{Signature: Signature{2, 1}, Slot: 1}); err != nil {
		t.Fatal(err)
	}

	a, _ := store.GetAccount(ctx, key)
	b, _ := store.GetAccount(ctx, key)
	a.Data = []byte{1}
	b.Data = []byte{2}
	if err := store.Commit(ctx, []*Account{a}, &TransactionRecord{Signature: Signature{2, 2}, Slot: 2}); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	if err := store.Commit(ctx, []*Account{b}, &TransactionRecord{Signature: Signature{2, 3}, Slot: 3}); !errors.Is(err, ErrStaleAccount) {
		t.Fatalf("second writer: got %v, want ErrStaleAccount", err)
	}
	if ok, _ := store.HasTransaction(ctx, Signature{2, 3}); ok {
		t.Error("rejected transaction was recorded")
	}
	got, _ := store.GetAccount(ctx, key)
	if got.Data[0] != 1 || got.Version != 2 {
		t.Errorf("account = %+v, want first writer's update at version 2", got)
	}
	if slot, _ := store.LatestSlot(ctx); slot != 2 {
		t.Errorf("LatestSlot = %d, want 2", slot)
	}
}

func TestResumeSlotContinuesNumbering(t *testing.T) {
	f := newFixture(t)
	acct := f.newAccount(t, 8)
	first, err := f.run(t, []AccountMeta{Writable(acct.Pubkey())}, []byte{opWrite, 1})
	if err != nil {
		t.Fatal(err)
	}

	restarted := NewRuntime(f.store, clock.NewFixed(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)), WithLogger(logger.Discard()))
	restarted.Register("script", scriptID, scriptProgram{})
	if err := restarted.ResumeSlot(context.Background()); err != nil {
		t.Fatalf("ResumeSlot: %v", err)
	}
	f.rt = restarted
	next, err := f.run(t, []AccountMeta{Writable(acct.Pubkey())}, []byte{opWrite, 2})
	if err != nil {
		t.Fatal(err)
	}
	if next.Slot <= first.Slot {
		t.Errorf("slot after restart = %d, want > %d", next.Slot, first.Slot)
	}
}
