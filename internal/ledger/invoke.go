package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Program is an on-ledger program. Process receives the accounts in the
// order the instruction lists them.
type Program interface {
	Process(ic *InvokeContext, accounts []*AccountInfo, data []byte) error
}

// txState is the working set of one transaction. Nothing in it reaches
// the store unless every instruction succeeds.
type txState struct {
	accounts map[Pubkey]*Account
	loaded   map[Pubkey]bool
	logs     []string
	events   []Event
	now      time.Time
	slot     uint64
}

// InvokeContext is the frame of one executing program: which program
// runs and which signer and writable privileges it holds.
type InvokeContext struct {
	ctx      context.Context
	rt       *Runtime
	tx       *txState
	program  Pubkey
	signers  map[Pubkey]bool
	writable map[Pubkey]bool
	depth    int
}

func (rt *Runtime) newFrame(ctx context.Context, tx *txState, program Pubkey, metas []AccountMeta, depth int) (*InvokeContext, []*AccountInfo) {
	ic := &InvokeContext{
		ctx:      ctx,
		rt:       rt,
		tx:       tx,
		program:  program,
		signers:  make(map[Pubkey]bool, len(metas)),
		writable: make(map[Pubkey]bool, len(metas)),
		depth:    depth,
	}
	infos := make([]*AccountInfo, len(metas))
	for i, meta := range metas {
		if meta.IsSigner {
			ic.signers[meta.Pubkey] = true
		}
		if meta.IsWritable {
			ic.writable[meta.Pubkey] = true
		}
		infos[i] = &AccountInfo{Key: meta.Pubkey, IsSigner: meta.IsSigner, IsWritable: meta.IsWritable, frame: ic}
	}
	return ic, infos
}

func (c *InvokeContext) Context() context.Context { return c.ctx }

// ProgramID is the id of the executing program.
func (c *InvokeContext) ProgramID() Pubkey { return c.program }

// Now is the host clock, fixed for the whole transaction.
func (c *InvokeContext) Now() time.Time { return c.tx.now }

func (c *InvokeContext) Slot() uint64 { return c.tx.slot }

// IsSigner reports whether key signs in this frame.
func (c *InvokeContext) IsSigner(key Pubkey) bool { return c.signers[key] }

// Log appends a program log line to the transaction record.
func (c *InvokeContext) Log(format string, args ...any) {
	c.tx.logs = append(c.tx.logs, fmt.Sprintf("Program %s log: %s", c.program, fmt.Sprintf(format, args...)))
}

// Emit records an event. Events reach subscribers only if the
// transaction commits.
func (c *InvokeContext) Emit(name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", name, err)
	}
	c.tx.events = append(c.tx.events, Event{Program: c.program, Name: name, Payload: raw})
	return nil
}

func (c *InvokeContext) authorized(key Pubkey, authorities []DerivedAuthority) bool {
	if c.signers[key] {
		return true
	}
	for _, a := range authorities {
		if a.program == c.program && a.address == key && a.valid() {
			return true
		}
	}
	return false
}

// CreateAccount allocates space bytes at info's address and assigns it
// to the executing program. The address must sign, either as a
// transaction signer or through a DerivedAuthority of this program.
func (c *InvokeContext) CreateAccount(info *AccountInfo, space int, authorities ...DerivedAuthority) error {
	if space <= 0 || space > MaxAccountSpace {
		return fmt.Errorf("%w: %d", ErrInvalidAccountSpace, space)
	}
	if !c.writable[info.Key] {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, info.Key)
	}
	if c.tx.accounts[info.Key] != nil {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, info.Key)
	}
	if !c.authorized(info.Key, authorities) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, info.Key)
	}
	c.tx.accounts[info.Key] = &Account{Key: info.Key, Owner: c.program, Space: space}
	return nil
}

// Invoke calls another program. Every account must already be part of
// the transaction. A signer meta needs this frame's signature or a
// DerivedAuthority of this program for that address; a writable meta
// needs this frame's write privilege.
func (c *InvokeContext) Invoke(ix Instruction, authorities ...DerivedAuthority) error {
	if c.depth+1 > c.rt.maxCallDepth {
		return ErrCallDepth
	}
	callee, ok := c.rt.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}
	for _, meta := range ix.Accounts {
		if !c.tx.loaded[meta.Pubkey] {
			return fmt.Errorf("%w: %s", ErrAccountNotLoaded, meta.Pubkey)
		}
		if meta.IsSigner && !c.authorized(meta.Pubkey, authorities) {
			return fmt.Errorf("%w: signer %s", ErrPrivilegeEscalation, meta.Pubkey)
		}
		if meta.IsWritable && !c.writable[meta.Pubkey] {
			return fmt.Errorf("%w: writable %s", ErrPrivilegeEscalation, meta.Pubkey)
		}
	}
	frame, infos := c.rt.newFrame(c.ctx, c.tx, ix.ProgramID, ix.Accounts, c.depth+1)
	return callee.program.Process(frame, infos, ix.Data)
}
