package service

import (
	"sync"

	"github.com/google/uuid"
)

// loanLocker serializes mutating operations per loan id. Operations on
// different loans proceed in parallel; there is no global lock.
type loanLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLoanLocker() *loanLocker {
	return &loanLocker{locks: make(map[uuid.UUID]*lockEntry)}
}

func (l *loanLocker) Lock(id uuid.UUID) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *loanLocker) Unlock(id uuid.UUID) {
	l.mu.Lock()
	entry := l.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
