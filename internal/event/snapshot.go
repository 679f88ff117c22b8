package event

import (
	"fmt"
	"time"
)

// ProposalSnapshot is the structural form of one live proposal slot.
// Timezone carries the IANA zone name, which time.Time serialization
// alone would lose.
type ProposalSnapshot struct {
	When     time.Time `json:"timestamp"`
	Timezone string    `json:"timezone"`
	Accepted []string  `json:"accepted,omitempty"`
}

// Snapshot is the plain structural form of an event used by the
// persistence collaborator. Removed proposal slots are nil entries so
// index positions survive the round-trip.
type Snapshot struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Invitees  []string            `json:"invitees,omitempty"`
	Responses []string            `json:"responses,omitempty"`
	Finalized *int                `json:"finalized,omitempty"`
	Proposals []*ProposalSnapshot `json:"proposals"`
}

// Snapshot captures the event's full state, including holes left by
// removed proposals.
func (e *Event) Snapshot() Snapshot {
	s := Snapshot{
		ID:        e.id,
		Name:      e.name,
		Invitees:  append([]string(nil), e.invitees...),
		Responses: append([]string(nil), e.responses...),
		Proposals: make([]*ProposalSnapshot, len(e.proposals)),
	}
	if e.IsFinalized() {
		idx := e.finalized
		s.Finalized = &idx
	}
	for i, p := range e.proposals {
		if p == nil {
			continue
		}
		s.Proposals[i] = &ProposalSnapshot{
			When:     p.when,
			Timezone: p.when.Location().String(),
			Accepted: p.Attendees(),
		}
	}
	return s
}

// FromSnapshot reconstructs an equivalent event, preserving indices,
// timezones, accepted sets, and the finalized choice.
func FromSnapshot(s Snapshot) (*Event, error) {
	e := New(s.ID, s.Name)
	e.invitees = append([]string(nil), s.Invitees...)
	e.responses = append([]string(nil), s.Responses...)
	e.proposals = make([]*Proposal, len(s.Proposals))
	for i, ps := range s.Proposals {
		if ps == nil {
			continue
		}
		when := ps.When
		if ps.Timezone != "" {
			loc, err := time.LoadLocation(ps.Timezone)
			if err != nil {
				return nil, fmt.Errorf("restore event %s: proposal %d: %w", s.ID, i, err)
			}
			when = when.In(loc)
		}
		p := newProposal(when)
		p.accepted = append([]string(nil), ps.Accepted...)
		e.proposals[i] = p
	}
	if s.Finalized != nil {
		if _, err := e.Proposal(*s.Finalized); err != nil {
			return nil, fmt.Errorf("restore event %s: finalized slot %d: %w", s.ID, *s.Finalized, err)
		}
		e.finalized = *s.Finalized
	}
	e.earliest = e.scanEarliest()
	e.latest = e.scanLatest()
	e.recomputeLeaders()
	return e, nil
}
