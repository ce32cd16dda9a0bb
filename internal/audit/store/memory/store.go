package memory

import (
	"context"
	"sync"

	"typeindex/internal/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.WebID] = append(s.events[event.WebID], event)
	return nil
}

// ListByWebID returns up to limit events for webID, most recent first.
// A non-positive limit returns every event.
func (s *InMemoryStore) ListByWebID(_ context.Context, webID string, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[webID]
	out := make([]audit.Event, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, stored[i])
	}
	return out, nil
}
