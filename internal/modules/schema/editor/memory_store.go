package editor

import (
	"context"
	"sync"
	"time"

	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
)

// MemoryStore implements Store in process. Used when Redis is disabled and
// in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Fields = append([]builder.FieldDefinition(nil), snap.Fields...)
	s.entries[snap.ID] = memoryEntry{snap: snap, expiresAt: s.expiry(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	snap := e.snap
	snap.Fields = append([]builder.FieldDefinition(nil), snap.Fields...)
	return snap, nil
}

func (s *MemoryStore) Touch(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live(id); ok {
		e.expiresAt = s.expiry(ttl)
		s.entries[id] = e
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Len counts live snapshots.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.entries {
		if _, ok := s.live(id); ok {
			n++
		}
	}
	return n
}

func (s *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}
