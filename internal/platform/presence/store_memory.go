package presence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	orgID  uuid.UUID
	userID uuid.UUID
}

// MemoryStore is the single-instance presence store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]Entry)}
}

func (s *MemoryStore) Set(_ context.Context, orgID, userID uuid.UUID, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey{orgID, userID}] = Entry{
		OrgID:    orgID,
		UserID:   userID,
		Status:   status,
		LastSeen: at,
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, orgID, userID uuid.UUID) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[memoryKey{orgID, userID}]
	if !ok {
		return StatusOffline, false, nil
	}
	return entry.Status, true, nil
}

func (s *MemoryStore) Touch(_ context.Context, orgID, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{orgID, userID}
	entry, ok := s.entries[key]
	if !ok {
		// First contact without an explicit status counts as online.
		entry = Entry{OrgID: orgID, UserID: userID, Status: StatusOnline}
	}
	entry.LastSeen = at
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) StaleBefore(_ context.Context, cutoff time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []Entry
	for _, entry := range s.entries {
		if entry.LastSeen.Before(cutoff) {
			stale = append(stale, entry)
		}
	}
	return stale, nil
}

func (s *MemoryStore) Delete(_ context.Context, orgID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, memoryKey{orgID, userID})
	return nil
}
