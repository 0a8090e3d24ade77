package ledger

import (
	"bytes"
	"slices"
	"sync"
)

// accountLocks hands out one RWMutex per account key. Writable
// accounts are locked exclusively, read-only ones shared.
type accountLocks struct {
	mu    sync.Mutex
	locks map[Pubkey]*lockEntry
}

type lockEntry struct {
	sync.RWMutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[Pubkey]*lockEntry)}
}

func (l *accountLocks) entry(key Pubkey) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *accountLocks) release(key Pubkey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// acquire locks every key in sorted order, so two transactions with
// overlapping account sets cannot deadlock, and returns the unlock func.
func (l *accountLocks) acquire(writable map[Pubkey]bool) func() {
	keys := make([]Pubkey, 0, len(writable))
	for key := range writable {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b Pubkey) int { return bytes.Compare(a[:], b[:]) })
	held := make([]*lockEntry, len(keys))
	for i, key := range keys {
		e := l.entry(key)
		if writable[key] {
			e.Lock()
		} else {
			e.RLock()
		}
		held[i] = e
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			if writable[keys[i]] {
				held[i].Unlock()
			} else {
				held[i].RUnlock()
			}
			l.release(keys[i])
		}
	}
}
