// Package eventset holds the collection of events known to the
// service. It performs no negotiation logic of its own; sorting and
// filtering delegate to the aggregate's comparison and predicate.
package eventset

import (
	"sort"

	"github.com/calpoll/calpoll/internal/event"
)

// Set is an id-keyed collection of events. It is not safe for
// concurrent use; the owning service serializes access.
type Set struct {
	byID map[string]*event.Event
}

func New() *Set {
	return &Set{byID: make(map[string]*event.Event)}
}

// Add inserts or replaces the event under its id.
func (s *Set) Add(e *event.Event) {
	s.byID[e.ID()] = e
}

// Remove drops the event with the given id, reporting whether it was
// present.
func (s *Set) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

// Get looks up an event by id.
func (s *Set) Get(id string) (*event.Event, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Set) Len() int { return len(s.byID) }

// Events returns all events ordered by the aggregate's comparison
// order, ties broken by id for stable output.
func (s *Set) Events() []*event.Event {
	out := make([]*event.Event, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Compare(out[j]); c != 0 {
			return c < 0
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Filter returns the matching events in sorted order.
func (s *Set) Filter(f event.Filter) []*event.Event {
	out := make([]*event.Event, 0)
	for _, e := range s.Events() {
		if e.Matches(f) {
			out = append(out, e)
		}
	}
	return out
}
