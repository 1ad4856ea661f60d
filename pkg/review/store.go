package review

import (
	"sync"
	"time"

	"github.com/nikogura/cv-coach/pkg/failure"
)

// Store keeps at most one review session per user.
type Store interface {
	// Start stores s as the user's session, replacing any existing one. The replaced
	// session, if any, is returned so the caller can tell the user it was discarded.
	Start(s Session) (discarded *Session)
	// Get returns a snapshot of the user's session.
	Get(userID int64) (s Session, ok bool)
	// Update runs fn against the live session while holding that user's lock.
	// fn must not call back into the store.
	Update(userID int64, fn func(s *Session) error) (err error)
	// Clear removes the user's session.
	Clear(userID int64)
	// Sweep removes sessions not updated since idleSince and returns their owners.
	Sweep(idleSince time.Time) (swept []int64)
	// Len returns the number of sessions held.
	Len() (n int)
}

type entry struct {
	mu      sync.Mutex
	session Session
	removed bool
}

// MemoryStore is a process-local Store. Writers for different users never block
// each other; writers for the same user are serialized.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[int64]*entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() (store *MemoryStore) {
	store = &MemoryStore{entries: make(map[int64]*entry)}
	return store
}

// Start implements Store.
func (m *MemoryStore) Start(s Session) (discarded *Session) {
	m.mu.Lock()
	old := m.entries[s.UserID]
	m.entries[s.UserID] = &entry{session: s}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		prev := old.session.Clone()
		old.removed = true
		old.mu.Unlock()
		discarded = &prev
	}

	return discarded
}

// Get implements Store.
func (m *MemoryStore) Get(userID int64) (s Session, ok bool) {
	e := m.lookup(userID)
	if e == nil {
		return s, ok
	}

	e.mu.Lock()
	s = e.session.Clone()
	e.mu.Unlock()

	ok = true
	return s, ok
}

// Update implements Store.
func (m *MemoryStore) Update(userID int64, fn func(s *Session) error) (err error) {
	for {
		e := m.lookup(userID)
		if e == nil {
			err = failure.New(failure.InvalidDecision, "update", "no review in progress")
			return err
		}

		e.mu.Lock()
		if e.removed {
			// Replaced or cleared while waiting for the lock.
			e.mu.Unlock()
			continue
		}

		err = fn(&e.session)
		e.mu.Unlock()
		return err
	}
}

// Clear implements Store.
func (m *MemoryStore) Clear(userID int64) {
	m.mu.Lock()
	e := m.entries[userID]
	delete(m.entries, userID)
	m.mu.Unlock()

	if e != nil {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
	}
}

// Sweep implements Store.
func (m *MemoryStore) Sweep(idleSince time.Time) (swept []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, e := range m.entries {
		e.mu.Lock()
		idle := e.session.UpdatedAt.Before(idleSince)
		if idle {
			e.removed = true
		}
		e.mu.Unlock()

		if idle {
			delete(m.entries, userID)
			swept = append(swept, userID)
		}
	}

	return swept
}

// Len implements Store.
func (m *MemoryStore) Len() (n int) {
	m.mu.RLock()
	n = len(m.entries)
	m.mu.RUnlock()
	return n
}

func (m *MemoryStore) lookup(userID int64) (e *entry) {
	m.mu.RLock()
	e = m.entries[userID]
	m.mu.RUnlock()
	return e
}
