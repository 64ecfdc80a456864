package event

import (
	"slices"
	"sync"
	"time"
)

// MergeResult summarises a Merge call. It is informational only; the store
// content is fully determined by the union of everything merged so far.
type MergeResult struct {
	Accepted   []Event
	Duplicates int
	Malformed  int
}

type entry struct {
	event Event
	at    time.Time
}

// Store holds the deduplicated, time-ordered log of accepted events.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	ids     map[string]struct{}
}

// NewStore creates an empty event store.
func NewStore() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// Merge folds batch into the log as a set union keyed by EventID and re-sorts
// by timestamp. Ties keep insertion order. Merging the same batch any number
// of times converges to the same log.
func (s *Store) Merge(batch []Event) MergeResult {
	var result MergeResult
	if len(batch) == 0 {
		return result
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range batch {
		if _, seen := s.ids[e.EventID]; seen {
			result.Duplicates++
			continue
		}
		at, ok := ParseTimestamp(e.TS)
		if !ok {
			result.Malformed++
		}
		s.ids[e.EventID] = struct{}{}
		s.entries = append(s.entries, entry{event: e, at: at})
		result.Accepted = append(result.Accepted, e)
	}

	if len(result.Accepted) > 0 {
		slices.SortStableFunc(s.entries, func(a, b entry) int {
			return a.at.Compare(b.at)
		})
	}
	return result
}

// Snapshot returns a copy of the current log in read order.
func (s *Store) Snapshot() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, len(s.entries))
	for i, e := range s.entries {
		events[i] = e.event
	}
	return events
}

// Contains reports whether an event with the given id has been accepted.
func (s *Store) Contains(eventID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[eventID]
	return ok
}

// Len returns the number of accepted events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every accepted event.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.ids = make(map[string]struct{})
}
