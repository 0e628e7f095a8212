package scene

import "sync"

// Store owns sessions and the per-identity locking discipline. Lock must be
// held for the whole read-modify-write of a turn so two turns for the same
// identity never interleave; turns for different identities proceed in
// parallel.
type Store interface {
	// Lock serializes access to one identity's session and returns the
	// unlock function.
	Lock(userID int64) func()
	// GetOrCreate returns the identity's session, creating it in the
	// initial scene on first contact.
	GetOrCreate(userID int64, initial ID) *Session
	// Save persists the mutated session.
	Save(s *Session)
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

// NewMemoryStore constructs an in-memory Store with a keyed mutex per
// identity.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (m *memoryStore) Lock(userID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *memoryStore) GetOrCreate(userID int64, initial ID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := newSession(userID, initial)
	m.sessions[userID] = s
	return s
}

func (m *memoryStore) Save(s *Session) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s
}
