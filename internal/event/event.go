// Package event implements the date-negotiation aggregate: an event
// accumulates candidate dates, invitees vote on them, and the organizer
// eventually locks the event to a single finalized date.
//
// The aggregate is not safe for concurrent use; callers serialize access
// to a given Event themselves.
package event

import "time"

// Proposals with at most this many votes are never marked leading, to
// avoid front-runner badges on small or low-vote events.
const leaderFloor = 2

// Event is the negotiation aggregate. Proposal slots form a sparse
// arena: indices are handed out at proposal time and never reused, and
// removing a proposal leaves a permanent hole.
type Event struct {
	id   string
	name string

	proposals []*Proposal // nil marks a removed slot
	invitees  []string    // insertion order is significant for display
	responses []string

	finalized int // index into proposals, -1 when open

	earliest *Proposal
	latest   *Proposal
}

// New creates an open event with no proposals or invitees.
func New(id, name string) *Event {
	return &Event{id: id, name: name, finalized: -1}
}

func (e *Event) ID() string   { return e.id }
func (e *Event) Name() string { return e.name }

// ProposeDate adds a candidate date and returns its permanent index.
// Dates may arrive in any chronological order. Fails with
// ErrEventFinalized once a date has been locked in.
func (e *Event) ProposeDate(when time.Time) (int, error) {
	if e.IsFinalized() {
		return 0, ErrEventFinalized
	}
	p := newProposal(when)
	e.proposals = append(e.proposals, p)
	if e.earliest == nil || when.Before(e.earliest.when) {
		e.earliest = p
	}
	if e.latest == nil || when.After(e.latest.when) {
		e.latest = p
	}
	return len(e.proposals) - 1, nil
}

// Unpropose removes the slot at idx. The index stays used up: later
// lookups fail and ProposeDate never hands it out again. Removing the
// finalized proposal reopens the event.
func (e *Event) Unpropose(idx int) error {
	p, err := e.Proposal(idx)
	if err != nil {
		return err
	}
	e.proposals[idx] = nil
	if e.finalized == idx {
		e.finalized = -1
	}
	if e.earliest == p {
		e.earliest = e.scanEarliest()
	}
	if e.latest == p {
		e.latest = e.scanLatest()
	}
	return nil
}

func (e *Event) scanEarliest() *Proposal {
	var min *Proposal
	for _, p := range e.proposals {
		if p == nil {
			continue
		}
		if min == nil || p.when.Before(min.when) {
			min = p
		}
	}
	return min
}

func (e *Event) scanLatest() *Proposal {
	var max *Proposal
	for _, p := range e.proposals {
		if p == nil {
			continue
		}
		if max == nil || p.when.After(max.when) {
			max = p
		}
	}
	return max
}

// Proposal resolves a live slot. It is the sole accessor other
// components use to read or mutate a specific proposal.
func (e *Event) Proposal(idx int) (*Proposal, error) {
	if idx < 0 || idx >= len(e.proposals) || e.proposals[idx] == nil {
		return nil, ErrInvalidProposal
	}
	return e.proposals[idx], nil
}

// AcceptProposal records uid's yes vote on the proposal at idx. The
// voter is added to both the invitee roster and the response roster,
// and the leading markers are recomputed.
func (e *Event) AcceptProposal(uid string, idx int) error {
	p, err := e.Proposal(idx)
	if err != nil {
		return err
	}
	p.Yes(uid)
	e.Invite(uid)
	e.addResponse(uid)
	e.recomputeLeaders()
	return nil
}

// RejectProposal withdraws uid's vote on the proposal at idx. Rejecting
// counts as a response but does not add uid to the invitee roster; an
// invitee can say no without ever having been invited.
func (e *Event) RejectProposal(uid string, idx int) error {
	p, err := e.Proposal(idx)
	if err != nil {
		return err
	}
	p.No(uid)
	e.addResponse(uid)
	e.recomputeLeaders()
	return nil
}

// recomputeLeaders marks every live proposal holding the maximum vote
// count, provided that maximum exceeds the floor. Ties produce multiple
// simultaneous leaders.
func (e *Event) recomputeLeaders() {
	max := 0
	for _, p := range e.proposals {
		if p != nil && p.YesCount() > max {
			max = p.YesCount()
		}
	}
	for _, p := range e.proposals {
		if p == nil {
			continue
		}
		if max > leaderFloor && p.YesCount() == max {
			p.markLeader()
		} else {
			p.clearLeader()
		}
	}
}

// Finalize locks the event to the proposal at idx. Votes already
// recorded on that proposal (and on every other) stay intact; choosing
// a different date later requires an explicit Unfinalize first.
func (e *Event) Finalize(idx int) error {
	if e.IsFinalized() {
		return ErrEventAlreadyFinalized
	}
	if _, err := e.Proposal(idx); err != nil {
		return err
	}
	e.finalized = idx
	return nil
}

// Unfinalize reopens the event. Calling it on an open event is a no-op.
func (e *Event) Unfinalize() { e.finalized = -1 }

// FinalProposal returns the finalized proposal, or ErrEventNotFinalized
// while negotiation is still open.
func (e *Event) FinalProposal() (*Proposal, error) {
	if !e.IsFinalized() {
		return nil, ErrEventNotFinalized
	}
	return e.Proposal(e.finalized)
}

func (e *Event) IsFinalized() bool { return e.finalized >= 0 }

// Invite adds uid to the invitee roster, keeping insertion order.
func (e *Event) Invite(uid string) {
	for _, v := range e.invitees {
		if v == uid {
			return
		}
	}
	e.invitees = append(e.invitees, uid)
}

// Uninvite removes uid from the invitee roster. Votes and responses
// already recorded are untouched.
func (e *Event) Uninvite(uid string) {
	for i, v := range e.invitees {
		if v == uid {
			e.invitees = append(e.invitees[:i], e.invitees[i+1:]...)
			return
		}
	}
}

// Invitees returns the roster in invitation order.
func (e *Event) Invitees() []string {
	out := make([]string, len(e.invitees))
	copy(out, e.invitees)
	return out
}

// HasResponded reports whether uid has accepted or rejected any
// proposal of this event.
func (e *Event) HasResponded(uid string) bool {
	for _, v := range e.responses {
		if v == uid {
			return true
		}
	}
	return false
}

func (e *Event) addResponse(uid string) {
	if e.HasResponded(uid) {
		return
	}
	e.responses = append(e.responses, uid)
}
