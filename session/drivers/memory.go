package drivers

import (
	"context"
	"sync"
	"time"

	"github.com/creastat/booking/session"
)

type memoryEntry struct {
	data      *session.SessionData
	expiresAt time.Time
}

// InMemoryStore implements session.Store using an in-memory map with
// optimistic locking and sliding expiry. Suitable for a single instance.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// NewInMemoryStore creates a new in-memory session store. Expired sessions
// are swept every sweepInterval (default one minute).
func NewInMemoryStore(ttl, sweepInterval time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	s := &InMemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go s.startCleanup(sweepInterval)
	return s
}

// Create implements session.Store.
// Creates a new session with Version set to 1.
func (s *InMemoryStore) Create(ctx context.Context, data *session.SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	s.sessions[data.ID] = &memoryEntry{data: data.Clone(), expiresAt: now.Add(s.ttl)}
	return nil
}

// Get implements session.Store.
// Returns nil if the session is not found or expired (not an error).
// Refreshes the expiry on every read.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*session.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.sessions[id]
	if !exists {
		return nil, nil // Not found
	}

	now := s.now()
	if !now.Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, nil
	}

	e.expiresAt = now.Add(s.ttl)
	return e.data.Clone(), nil
}

// Update implements session.Store.
// Verifies Version matches, increments it, updates UpdatedAt, and persists.
// Returns ErrVersionConflict if the version does not match.
// Returns ErrNotFound if the session does not exist or expired.
func (s *InMemoryStore) Update(ctx context.Context, data *session.SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, exists := s.sessions[data.ID]
	if !exists || !now.Before(e.expiresAt) {
		delete(s.sessions, data.ID)
		return session.ErrNotFound
	}

	// Check version for optimistic locking
	if e.data.Version != data.Version {
		return session.ErrVersionConflict
	}

	// Increment version and update timestamp
	data.Version++
	data.UpdatedAt = now

	s.sessions[data.ID] = &memoryEntry{data: data.Clone(), expiresAt: now.Add(s.ttl)}
	return nil
}

// Delete implements session.Store.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Ping implements session.Store.
// Returns ErrClosed once the store has been closed.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	select {
	case <-s.done:
		return session.ErrClosed
	default:
		return nil
	}
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Close implements session.Store.
func (s *InMemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*memoryEntry)
	return nil
}

func (s *InMemoryStore) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes all expired sessions.
func (s *InMemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
