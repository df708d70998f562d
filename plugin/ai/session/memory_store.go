package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// entry pairs a conversation with the lock that guards it.
type entry struct {
	mu      sync.Mutex
	conv    *Conversation
	removed bool // set by cleanup under mu; holders must re-resolve the entry
}

// MemoryStore is an in-process SessionService.
// The map is guarded by mu; each conversation by its own entry lock.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

var _ SessionService = (*MemoryStore)(nil)

func (s *MemoryStore) lookup(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[sessionID]; ok {
		return e
	}
	e = &entry{conv: newConversation(sessionID, s.now())}
	s.entries[sessionID] = e
	return e
}

// Update implements SessionService.
func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn func(c *Conversation) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := s.lookup(sessionID)
		e.mu.Lock()
		if e.removed {
			// Evicted between lookup and lock; a fresh entry will be created.
			e.mu.Unlock()
			continue
		}

		err := fn(e.conv)
		e.conv.UpdatedAt = s.now()
		e.mu.Unlock()
		return err
	}
}

// Get implements SessionService.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (Summary, bool) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return Summary{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.Summary(), true
}

// ListSessions implements SessionService.
func (s *MemoryStore) ListSessions(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	result := make([]Summary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			result = append(result, e.conv.Summary())
		}
		e.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountByState returns the number of conversations in each state.
func (s *MemoryStore) CountByState() map[State]int {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	counts := make(map[State]int, 3)
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			counts[e.conv.State]++
		}
		e.mu.Unlock()
	}
	return counts
}

// CleanupExpired implements SessionService. Conversations currently locked by
// a request are skipped and reconsidered on the next run.
func (s *MemoryStore) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if !e.conv.Reported() && e.conv.UpdatedAt.Before(cutoff) {
			e.removed = true
			delete(s.entries, id)
			deleted++
		}
		e.mu.Unlock()
	}
	return deleted, nil
}

// Len returns the number of tracked conversations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
