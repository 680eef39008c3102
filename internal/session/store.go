package session

import (
	"context"
	"sync"
	"time"
)

// Store persists session state by session id.
// Get returns (state, true, nil) on hit, (zero, false, nil) on miss or expiry.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Save(ctx context.Context, id string, state State) error
}

// sweepInterval caps how often Save scans the whole map for expired entries.
const sweepInterval = time.Minute

// InMemoryStore keeps sessions in a process-local map. Entries expire ttl after their
// last Save. They are removed on access and by a periodic sweep during Save.
// Safe for concurrent use.
type InMemoryStore struct {
	mu        sync.Mutex
	data      map[string]storeEntry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

type storeEntry struct {
	state     State
	expiresAt time.Time
}

// NewInMemoryStore creates an in-memory store. A non-positive ttl defaults to 24h.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InMemoryStore{
		data: make(map[string]storeEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (State, bool, error) {
	if err := ctx.Err(); err != nil {
		return State{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[id]
	if !ok {
		return State{}, false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.data, id)
		return State{}, false, nil
	}
	return entry.state.Clone(), true, nil
}

func (s *InMemoryStore) Save(ctx context.Context, id string, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
	}
	s.data[id] = storeEntry{
		state:     state.Clone(),
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

// sweepLocked drops every expired entry. Callers hold s.mu.
func (s *InMemoryStore) sweepLocked(now time.Time) {
	for id, entry := range s.data {
		if now.After(entry.expiresAt) {
			delete(s.data, id)
		}
	}
	interval := sweepInterval
	if s.ttl < interval {
		interval = s.ttl
	}
	s.nextSweep = now.Add(interval)
}

// Len returns the number of stored sessions, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
