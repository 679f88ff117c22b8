// Package scheduler is the command service: it owns the event
// collection, serializes mutations, and writes every successful change
// through to the store.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calpoll/calpoll/internal/event"
	"github.com/calpoll/calpoll/internal/eventset"
	"github.com/calpoll/calpoll/internal/ics"
)

// ErrEventNotFound is returned when an event id is unknown.
var ErrEventNotFound = errors.New("event not found")

// Store persists event snapshots.
type Store interface {
	SaveEvent(ctx context.Context, snap event.Snapshot) error
	DeleteEvent(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]event.Snapshot, error)
}

// Service coordinates all event mutations. The aggregate itself
// carries no locking; the service's mutex is the single logical actor
// the core requires.
type Service struct {
	mu    sync.Mutex
	set   *eventset.Set
	store Store
	log   *slog.Logger
	newID func() string
	now   func() time.Time
}

// New builds a service around store. A nil store keeps events in
// memory only.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		set:   eventset.New(),
		store: store,
		log:   logger,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// LoadPersisted restores every stored event into the collection.
func (s *Service) LoadPersisted(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snaps, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		e, err := event.FromSnapshot(snap)
		if err != nil {
			return err
		}
		s.set.Add(e)
	}
	s.log.Info("events restored", "count", len(snaps))
	return nil
}

func (s *Service) persist(ctx context.Context, e *event.Event) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveEvent(ctx, e.Snapshot()); err != nil {
		return fmt.Errorf("persist event %s: %w", e.ID(), err)
	}
	return nil
}

func (s *Service) get(id string) (*event.Event, error) {
	e, ok := s.set.Get(id)
	if !ok {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// CreateEvent registers a new open event and returns its id.
func (s *Service) CreateEvent(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := event.New(s.newID(), name)
	s.set.Add(e)
	if err := s.persist(ctx, e); err != nil {
		return "", err
	}
	s.log.Info("event created", "event_id", e.ID(), "name", name)
	return e.ID(), nil
}

// DeleteEvent removes an event from the collection and the store.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set.Remove(id) {
		return ErrEventNotFound
	}
	if s.store != nil {
		if err := s.store.DeleteEvent(ctx, id); err != nil {
			return fmt.Errorf("delete event %s: %w", id, err)
		}
	}
	s.log.Info("event deleted", "event_id", id)
	return nil
}

// Propose adds a candidate date and returns its index.
func (s *Service) Propose(ctx context.Context, id string, when time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return 0, err
	}
	idx, err := e.ProposeDate(when)
	if err != nil {
		return 0, err
	}
	return idx, s.persist(ctx, e)
}

// Unpropose removes the candidate date at idx.
func (s *Service) Unpropose(ctx context.Context, id string, idx int) error {
	return s.mutate(ctx, id, func(e *event.Event) error { return e.Unpropose(idx) })
}

// Accept records a yes vote.
func (s *Service) Accept(ctx context.Context, id, uid string, idx int) error {
	return s.mutate(ctx, id, func(e *event.Event) error { return e.AcceptProposal(uid, idx) })
}

// Reject withdraws a vote.
func (s *Service) Reject(ctx context.Context, id, uid string, idx int) error {
	return s.mutate(ctx, id, func(e *event.Event) error { return e.RejectProposal(uid, idx) })
}

// Finalize locks the event to the date at idx.
func (s *Service) Finalize(ctx context.Context, id string, idx int) error {
	return s.mutate(ctx, id, func(e *event.Event) error { return e.Finalize(idx) })
}

// Unfinalize reopens a finalized event.
func (s *Service) Unfinalize(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(e *event.Event) error {
		e.Unfinalize()
		return nil
	})
}

// Invite adds an invitee to the roster.
func (s *Service) Invite(ctx context.Context, id, uid string) error {
	return s.mutate(ctx, id, func(e *event.Event) error {
		e.Invite(uid)
		return nil
	})
}

// Uninvite removes an invitee from the roster.
func (s *Service) Uninvite(ctx context.Context, id, uid string) error {
	return s.mutate(ctx, id, func(e *event.Event) error {
		e.Uninvite(uid)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*event.Event) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return err
	}
	if err := fn(e); err != nil {
		return err
	}
	return s.persist(ctx, e)
}

// ImportDates proposes every dated VEVENT of an uploaded calendar and
// returns the assigned indices.
func (s *Service) ImportDates(ctx context.Context, id string, payload []byte) ([]int, error) {
	dates, err := ics.CandidateDates(payload)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	indices := make([]int, 0, len(dates))
	for _, when := range dates {
		idx, err := e.ProposeDate(when)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	if err := s.persist(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info("dates imported", "event_id", id, "count", len(indices))
	return indices, nil
}

// Summary assembles the render-agnostic view of one event.
func (s *Service) Summary(id string) (event.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return event.Summary{}, err
	}
	return e.Summarize(s.now()), nil
}

// List returns summaries of the matching events in comparison order.
func (s *Service) List(f event.Filter) []event.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	matched := s.set.Filter(f)
	out := make([]event.Summary, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.Summarize(now))
	}
	return out
}

// ExportICS renders all finalized events as an iCalendar document.
func (s *Service) ExportICS() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ics.Export(s.set.Events(), s.now())
}
