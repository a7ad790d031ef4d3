package services

import "sync"

// CaseLocks serializes work per case while letting different cases proceed
// in parallel. Locks are dropped once no goroutine holds or waits for them.
type CaseLocks struct {
	mu    sync.Mutex
	locks map[string]*caseLock
}

type caseLock struct {
	mu   sync.Mutex
	refs int
}

// NewCaseLocks creates an empty lock set.
func NewCaseLocks() *CaseLocks {
	return &CaseLocks{locks: make(map[string]*caseLock)}
}

// Lock blocks until caseID is free and returns the matching unlock function.
func (l *CaseLocks) Lock(caseID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[caseID]
	if !ok {
		lock = &caseLock{}
		l.locks[caseID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, caseID)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of cases currently locked or awaited.
func (l *CaseLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
