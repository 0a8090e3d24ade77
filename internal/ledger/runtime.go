package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"concertticket/internal/shared/clock"
	"concertticket/pkg/logger"
)

const defaultMaxCallDepth = 4

// CommitHook runs after a successful transaction is stored.
type CommitHook func(ctx context.Context, record *TransactionRecord)

// ProgramInfo names a registered program.
type ProgramInfo struct {
	Name string `json:"name"`
	ID   Pubkey `json:"id"`
}

type registeredProgram struct {
	name    string
	program Program
}

// Runtime executes transactions against a Store. Transactions touching
// disjoint accounts run in parallel; overlapping ones are serialized by
// per-account locks.
type Runtime struct {
	store        Store
	clock        clock.Clock
	logger       *logger.Logger
	locks        *accountLocks
	programs     map[Pubkey]registeredProgram
	maxCallDepth int
	slot         atomic.Uint64

	hooksMu sync.RWMutex
	hooks   []CommitHook
}

type Option func(*Runtime)

func WithLogger(l *logger.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

func WithMaxCallDepth(depth int) Option {
	return func(r *Runtime) { r.maxCallDepth = depth }
}

func NewRuntime(store Store, clk clock.Clock, opts ...Option) *Runtime {
	r := &Runtime{
		store:        store,
		clock:        clk,
		logger:       logger.GetDefault(),
		locks:        newAccountLocks(),
		programs:     make(map[Pubkey]registeredProgram),
		maxCallDepth: defaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResumeSlot continues slot numbering after the highest slot the store
// has recorded. Call it once before the first Execute.
func (r *Runtime) ResumeSlot(ctx context.Context) error {
	latest, err := r.store.LatestSlot(ctx)
	if err != nil {
		return err
	}
	for {
		cur := r.slot.Load()
		if cur >= latest || r.slot.CompareAndSwap(cur, latest) {
			return nil
		}
	}
}

// Register installs a program. It must be called before Execute.
func (r *Runtime) Register(name string, id Pubkey, program Program) {
	r.programs[id] = registeredProgram{name: name, program: program}
}

// Programs lists the registered programs sorted by name.
func (r *Runtime) Programs() []ProgramInfo {
	out := make([]ProgramInfo, 0, len(r.programs))
	for id, p := range r.programs {
		out = append(out, ProgramInfo{Name: p.name, ID: id})
	}
	slices.SortFunc(out, func(a, b ProgramInfo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// OnCommit registers a hook called after every successful commit.
func (r *Runtime) OnCommit(hook CommitHook) {
	r.hooksMu.Lock()
	r.hooks = append(r.hooks, hook)
	r.hooksMu.Unlock()
}

func (r *Runtime) GetAccount(ctx context.Context, key Pubkey) (*Account, error) {
	return r.store.GetAccount(ctx, key)
}

func (r *Runtime) GetTransaction(ctx context.Context, sig Signature) (*TransactionRecord, error) {
	return r.store.GetTransaction(ctx, sig)
}

// Execute verifies, runs and commits tx. A transaction rejected before
// execution (bad signature, duplicate, unknown program) returns a nil
// record. A transaction whose instruction fails returns its failed
// record together with the error; none of its account changes persist.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*TransactionRecord, error) {
	start := time.Now()
	record, err := r.execute(ctx, tx)
	if record == nil {
		return nil, err
	}
	if err != nil {
		r.logger.LogTransactionFailed(ctx, record.Signature.String(), record.Slot, err)
		return record, err
	}
	r.logger.LogTransactionExecuted(ctx, record.Signature.String(), record.Slot, len(tx.Message.Instructions), time.Since(start))

	r.hooksMu.RLock()
	hooks := slices.Clone(r.hooks)
	r.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, record)
	}
	return record, nil
}

func (r *Runtime) execute(ctx context.Context, tx *Transaction) (*TransactionRecord, error) {
	if _, err := tx.Verify(); err != nil {
		return nil, err
	}
	sig := tx.ID()
	done, err := r.store.HasTransaction(ctx, sig)
	if err != nil {
		return nil, fmt.Errorf("checking transaction %s: %w", sig, err)
	}
	if done {
		return nil, ErrAlreadyProcessed
	}

	writable := make(map[Pubkey]bool)
	for i, ix := range tx.Message.Instructions {
		if _, ok := r.programs[ix.ProgramID]; !ok {
			return nil, &InstructionError{Index: i, Err: fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)}
		}
		for _, meta := range ix.Accounts {
			writable[meta.Pubkey] = writable[meta.Pubkey] || meta.IsWritable
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.locks.acquire(writable)
	defer unlock()

	keys := make([]Pubkey, 0, len(writable))
	loaded := make(map[Pubkey]bool, len(writable))
	for key := range writable {
		keys = append(keys, key)
		loaded[key] = true
	}
	accounts, err := r.store.GetAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	originals := make(map[Pubkey]*Account, len(accounts))
	for key, acct := range accounts {
		originals[key] = acct.clone()
	}

	state := &txState{
		accounts: accounts,
		loaded:   loaded,
		now:      r.clock.Now(),
		slot:     r.slot.Add(1),
	}
	record := &TransactionRecord{
		Signature: sig,
		Slot:      state.slot,
		FeePayer:  tx.Message.FeePayer(),
		BlockTime: state.now,
	}

	var execErr error
	for i, ix := range tx.Message.Instructions {
		frame, infos := r.newFrame(ctx, state, ix.ProgramID, ix.Accounts, 0)
		if err := r.programs[ix.ProgramID].program.Process(frame, infos, ix.Data); err != nil {
			execErr = &InstructionError{Index: i, Err: err}
			break
		}
	}
	record.Logs = state.logs

	if execErr != nil {
		record.Status = TxStatusFailed
		record.Error = execErr.Error()
		if code, ok := ErrorCodeOf(execErr); ok {
			record.ErrorCode = &code
		}
		if err := r.store.Commit(ctx, nil, record); err != nil {
			if errors.Is(err, ErrAlreadyProcessed) {
				return nil, err
			}
			return nil, fmt.Errorf("recording failed transaction: %w", err)
		}
		return record, execErr
	}

	var changed []*Account
	for key, acct := range state.accounts {
		if acct != nil && !acct.equal(originals[key]) {
			changed = append(changed, acct)
			record.Written = append(record.Written, key)
		}
	}
	slices.SortFunc(record.Written, func(a, b Pubkey) int { return bytes.Compare(a[:], b[:]) })
	record.Events = state.events
	record.Status = TxStatusSuccess

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.store.Commit(ctx, changed, record); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return nil, err
		}
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return record, nil
}
